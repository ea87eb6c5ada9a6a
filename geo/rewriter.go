package geo

import (
	"errors"
	"strings"

	"github.com/lqqyt2423/go-mitmproxy/proxy"

	"github.com/geospoof/geospoof/log"
)

// Rewriter overwrites the geolocation members of JSON request bodies sent to
// a single API host. It holds no per-request state and is safe for
// concurrent use.
type Rewriter struct {
	host        string
	coords      Coordinates
	maxBodySize int64
	logger      log.Logger
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithHost sets the substring a request URL must contain.
func WithHost(host string) Option {
	return func(r *Rewriter) {
		r.host = host
	}
}

// WithCoordinates sets the values written to the latitude and longitude members.
func WithCoordinates(c Coordinates) Option {
	return func(r *Rewriter) {
		r.coords = c
	}
}

// WithMaxBodySize bounds the decompressed body size; larger bodies fail to
// decode and pass through untouched.
func WithMaxBodySize(n int64) Option {
	return func(r *Rewriter) {
		r.maxBodySize = n
	}
}

// WithLogger sets where interception and failure lines go.
func WithLogger(l log.Logger) Option {
	return func(r *Rewriter) {
		r.logger = l
	}
}

// NewRewriter returns a Rewriter for DefaultHost and DefaultCoordinates,
// adjusted by opts.
func NewRewriter(opts ...Option) *Rewriter {
	r := &Rewriter{
		host:        DefaultHost,
		coords:      DefaultCoordinates,
		maxBodySize: DefaultMaxBodySize,
		logger:      log.DefaultLogger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Host returns the substring matched against request URLs.
func (r *Rewriter) Host() string {
	return r.host
}

// Coordinates returns the replacement coordinates.
func (r *Rewriter) Coordinates() Coordinates {
	return r.coords
}

// Process rewrites req in place when it is a JSON POST to the configured
// host whose body carries both geolocation members. Any other request is
// left untouched. Failures are logged and reported through the outcome,
// never returned.
func (r *Rewriter) Process(req *proxy.Request) Outcome {
	if req == nil || req.URL == nil {
		return SkippedHost
	}
	url := req.URL.String()
	if !strings.Contains(url, r.host) {
		return SkippedHost
	}
	r.logger.Infof("Intercepted API request: %s", url)

	if !strings.EqualFold(req.Method, "POST") {
		return SkippedMethod
	}
	if !strings.Contains(req.Header.Get("Content-Type"), "application/json") {
		return SkippedContentType
	}

	outcome, err := r.rewrite(req)
	if err != nil {
		r.logger.Errorf("Error processing JSON payload: %v", err)
	}
	return outcome
}

func (r *Rewriter) rewrite(req *proxy.Request) (Outcome, error) {
	decoded, err := DecodeBody(req.Header, req.Body, r.maxBodySize)
	if err != nil {
		return DecodeError, err
	}
	payload, err := DecodePayload(decoded.Text)
	if err != nil {
		if errors.Is(err, ErrPayloadShape) {
			return ShapeError, err
		}
		return DecodeError, err
	}

	oldLat, oldLon, ok, err := payload.Rewrite(r.coords)
	if err != nil {
		return EncodeError, err
	}
	if !ok {
		return SkippedKeys, nil
	}

	out, err := payload.Marshal()
	if err != nil {
		return EncodeError, err
	}
	// Header is only touched once the new body is ready.
	header := req.Header.Clone()
	body, err := decoded.Encode(header, out)
	if err != nil {
		return EncodeError, err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Body = body

	r.logger.Infof("Modified geolocation: (%s, %s) -> %s", oldLat, oldLon, r.coords)
	return Rewritten, nil
}
