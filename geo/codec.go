package geo

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/samber/lo"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
)

// contentEncodings returns the Content-Encoding tokens in the order they
// were applied.
func contentEncodings(header http.Header) []string {
	tokens := lo.Map(strings.Split(header.Get("Content-Encoding"), ","), func(s string, _ int) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
	return lo.Filter(tokens, func(s string, _ int) bool {
		return s != "" && s != "identity"
	})
}

// bodyCharset returns the encoding declared by the Content-Type charset
// parameter, or nil for UTF-8 and undeclared charsets.
func bodyCharset(header http.Header) (encoding.Encoding, error) {
	_, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		return nil, nil
	}
	label := params["charset"]
	if label == "" {
		return nil, nil
	}
	enc, name := charset.Lookup(label)
	if enc == nil {
		return nil, fmt.Errorf("%w: unsupported %q", ErrCharset, label)
	}
	if name == "utf-8" {
		return nil, nil
	}
	return enc, nil
}

// DefaultMaxBodySize bounds the decompressed size of a body.
const DefaultMaxBodySize = 1024 * 1024 * 5

// rawDeflate marks a deflate body that carried no zlib header.
const rawDeflate = "deflate-raw"

// Body is a request body decoded to UTF-8 text. It remembers the framing it
// was decoded from so Encode writes it back the same way.
type Body struct {
	Text    []byte
	codings []string
	charset encoding.Encoding
}

// DecodeBody undoes Content-Encoding and transcodes the body to UTF-8. The
// decompressed size may not exceed limit (DefaultMaxBodySize when <= 0).
func DecodeBody(header http.Header, body []byte, limit int64) (*Body, error) {
	if limit <= 0 {
		limit = DefaultMaxBodySize
	}
	codings := contentEncodings(header)
	out := body
	for i := len(codings) - 1; i >= 0; i-- {
		var (
			used string
			err  error
		)
		out, used, err = decompress(codings[i], out, limit)
		if err != nil {
			return nil, err
		}
		codings[i] = used
	}

	enc, err := bodyCharset(header)
	if err != nil {
		return nil, err
	}
	b := &Body{Text: out, codings: codings, charset: enc}
	if enc == nil {
		return b, nil
	}
	b.Text, err = enc.NewDecoder().Bytes(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCharset, err)
	}
	return b, nil
}

// Encode applies the charset and content codings the body was decoded from
// to text. A Content-Length header, when present, is updated to the new
// body length.
func (b *Body) Encode(header http.Header, text []byte) ([]byte, error) {
	out := text
	if b.charset != nil {
		var err error
		out, err = b.charset.NewEncoder().Bytes(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCharset, err)
		}
	}

	for _, ce := range b.codings {
		var err error
		out, err = compress(ce, out)
		if err != nil {
			return nil, err
		}
	}

	if header.Get("Content-Length") != "" {
		header.Set("Content-Length", strconv.Itoa(len(out)))
	}
	return out, nil
}

// EncodeBody encodes text as declared by header; deflate is written zlib
// framed.
func EncodeBody(header http.Header, text []byte) ([]byte, error) {
	enc, err := bodyCharset(header)
	if err != nil {
		return nil, err
	}
	b := &Body{codings: contentEncodings(header), charset: enc}
	return b.Encode(header, text)
}

// decompress returns the decoded body and the coding that decoded it.
func decompress(ce string, body []byte, limit int64) ([]byte, string, error) {
	var (
		r   io.Reader
		err error
	)
	used := ce
	switch ce {
	case "gzip", "x-gzip":
		r, err = gzip.NewReader(bytes.NewReader(body))
	case "deflate":
		// zlib framed per RFC 9110, raw deflate from some clients
		r, err = zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			r, err, used = flate.NewReader(bytes.NewReader(body)), nil, rawDeflate
		}
	case "br":
		r = brotli.NewReader(bytes.NewReader(body))
	case "zstd":
		d, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(limit)))
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrContentEncoding, err)
		}
		defer d.Close()
		out, err := d.DecodeAll(body, nil)
		if err != nil {
			return nil, "", fmt.Errorf("%w: zstd: %v", ErrContentEncoding, err)
		}
		if int64(len(out)) > limit {
			return nil, "", fmt.Errorf("%w: zstd: body exceeds %d bytes", ErrContentEncoding, limit)
		}
		return out, used, nil
	default:
		return nil, "", fmt.Errorf("%w: unsupported %q", ErrContentEncoding, ce)
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrContentEncoding, ce, err)
	}
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrContentEncoding, ce, err)
	}
	if int64(len(out)) > limit {
		return nil, "", fmt.Errorf("%w: %s: body exceeds %d bytes", ErrContentEncoding, ce, limit)
	}
	return out, used, nil
}

func compress(ce string, body []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	var w io.WriteCloser
	switch ce {
	case "gzip", "x-gzip":
		w = gzip.NewWriter(buf)
	case "deflate":
		w = zlib.NewWriter(buf)
	case rawDeflate:
		fw, err := flate.NewWriter(buf, flate.DefaultCompression)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrContentEncoding, err)
		}
		w = fw
	case "br":
		w = brotli.NewWriter(buf)
	case "zstd":
		e, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrContentEncoding, err)
		}
		defer e.Close()
		return e.EncodeAll(body, nil), nil
	default:
		return nil, fmt.Errorf("%w: unsupported %q", ErrContentEncoding, ce)
	}
	if _, err := w.Write(body); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrContentEncoding, ce, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrContentEncoding, ce, err)
	}
	return buf.Bytes(), nil
}
