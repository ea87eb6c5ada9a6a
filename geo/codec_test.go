package geo

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestBodyRoundTripEncodings(t *testing.T) {
	text := []byte(`{"lat":1,"lon":2,"bio":"hello hello hello hello"}`)
	for _, ce := range []string{"", "identity", "gzip", "deflate", "br", "zstd", "gzip, br", "GZIP"} {
		t.Run(ce, func(t *testing.T) {
			header := http.Header{"Content-Encoding": {ce}}
			body, err := EncodeBody(header, text)
			require.NoError(t, err)

			got, err := DecodeBody(header, body, 0)
			require.NoError(t, err)
			assert.Equal(t, string(text), string(got.Text))
		})
	}
}

func TestDecodeBodyForeignEncoders(t *testing.T) {
	text := []byte(`{"lat":1,"lon":2}`)

	gz := &bytes.Buffer{}
	gw := gzip.NewWriter(gz)
	_, _ = gw.Write(text)
	require.NoError(t, gw.Close())

	raw := &bytes.Buffer{}
	fw, err := flate.NewWriter(raw, flate.DefaultCompression)
	require.NoError(t, err)
	_, _ = fw.Write(text)
	require.NoError(t, fw.Close())

	br := &bytes.Buffer{}
	bw := brotli.NewWriter(br)
	_, _ = bw.Write(text)
	require.NoError(t, bw.Close())

	for ce, body := range map[string][]byte{"gzip": gz.Bytes(), "deflate": raw.Bytes(), "br": br.Bytes()} {
		got, err := DecodeBody(http.Header{"Content-Encoding": {ce}}, body, 0)
		require.NoError(t, err, ce)
		assert.Equal(t, string(text), string(got.Text), ce)
	}
}

func TestBodyCharset(t *testing.T) {
	header := http.Header{"Content-Type": {"application/json; charset=ISO-8859-1"}}
	latin1, err := charmap.Windows1252.NewEncoder().String(`{"name":"Zoë","lat":1,"lon":2}`)
	require.NoError(t, err)

	decoded, err := DecodeBody(header, []byte(latin1), 0)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Zoë","lat":1,"lon":2}`, string(decoded.Text))

	body, err := decoded.Encode(header, decoded.Text)
	require.NoError(t, err)
	assert.Equal(t, latin1, string(body))

	_, err = EncodeBody(header, []byte(`{"name":"日本"}`))
	assert.ErrorIs(t, err, ErrCharset)
}

func TestProcessEncodedBody(t *testing.T) {
	r, _ := newTestRewriter()
	for _, ce := range []string{"gzip", "br", "zstd", "deflate"} {
		t.Run(ce, func(t *testing.T) {
			header := http.Header{"Content-Encoding": {ce}}
			body, err := EncodeBody(header, []byte(`{"lat":1,"lon":2,"k":"v"}`))
			require.NoError(t, err)

			req := newRequest(t, "POST", profileURL, "application/json", "")
			req.Header.Set("Content-Encoding", ce)
			req.Body = body
			require.Equal(t, Rewritten, r.Process(req))

			decoded, err := DecodeBody(req.Header, req.Body, 0)
			require.NoError(t, err)
			assert.JSONEq(t, `{"lat":40.7081,"lon":-73.9571,"k":"v"}`, string(decoded.Text))
		})
	}
}

func rawDeflateBody(t *testing.T, text []byte) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	fw, err := flate.NewWriter(buf, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = fw.Write(text)
	require.NoError(t, err)
	require.NoError(t, fw.Close())
	return buf.Bytes()
}

func TestDecodeBodyKeepsDeflateFraming(t *testing.T) {
	header := http.Header{"Content-Encoding": {"deflate"}}

	decoded, err := DecodeBody(header, rawDeflateBody(t, []byte(`{"a":1}`)), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{rawDeflate}, decoded.codings)

	zlibBody, err := EncodeBody(header, []byte(`{"a":1}`))
	require.NoError(t, err)
	decoded, err = DecodeBody(header, zlibBody, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"deflate"}, decoded.codings)
}

func TestProcessRawDeflateBody(t *testing.T) {
	r, _ := newTestRewriter()
	req := newRequest(t, "POST", profileURL, "application/json", "")
	req.Header.Set("Content-Encoding", "deflate")
	req.Body = rawDeflateBody(t, []byte(`{"lat":1,"lon":2}`))

	require.Equal(t, Rewritten, r.Process(req))

	out, err := io.ReadAll(flate.NewReader(bytes.NewReader(req.Body)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"lat":40.7081,"lon":-73.9571}`, string(out))
}

func TestDecodeBodyLimit(t *testing.T) {
	text := []byte(`{"lat":1,"lon":2,"pad":"` + strings.Repeat("0", 4096) + `"}`)
	for _, ce := range []string{"gzip", "deflate", "br", "zstd"} {
		t.Run(ce, func(t *testing.T) {
			header := http.Header{"Content-Encoding": {ce}}
			body, err := EncodeBody(header, text)
			require.NoError(t, err)
			require.Less(t, len(body), 1024)

			_, err = DecodeBody(header, body, 1024)
			assert.ErrorIs(t, err, ErrContentEncoding)

			decoded, err := DecodeBody(header, body, int64(len(text)))
			require.NoError(t, err)
			assert.Equal(t, string(text), string(decoded.Text))
		})
	}
}

func TestProcessBodyOverLimit(t *testing.T) {
	r, buf := newTestRewriter(WithMaxBodySize(1024))
	header := http.Header{"Content-Encoding": {"gzip"}}
	body, err := EncodeBody(header, []byte(`{"lat":1,"lon":2,"pad":"`+strings.Repeat("0", 4096)+`"}`))
	require.NoError(t, err)

	req := newRequest(t, "POST", profileURL, "application/json", "")
	req.Header.Set("Content-Encoding", "gzip")
	req.Body = body

	assert.Equal(t, DecodeError, r.Process(req))
	assert.Equal(t, body, req.Body)
	assert.Contains(t, buf.String(), "body exceeds 1024 bytes")
}
