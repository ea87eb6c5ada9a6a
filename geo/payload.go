package geo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Payload is a decoded JSON object. Members are kept as raw JSON so that
// everything not rewritten is written back byte for byte.
type Payload map[string]json.RawMessage

// DecodePayload parses text as a JSON object. Invalid JSON yields
// ErrDecodePayload, valid JSON of any other kind yields ErrPayloadShape.
func DecodePayload(text []byte) (Payload, error) {
	// encoding/json would replace invalid bytes in keys with U+FFFD
	if !utf8.Valid(text) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrDecodePayload)
	}
	var p Payload
	if err := json.Unmarshal(text, &p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: got %s, want object", ErrPayloadShape, typeErr.Value)
		}
		return nil, fmt.Errorf("%w: %v", ErrDecodePayload, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: got null, want object", ErrPayloadShape)
	}
	return p, nil
}

func (p Payload) Lookup(key string) (json.RawMessage, bool) {
	v, ok := p[key]
	return v, ok
}

// Rewrite replaces the latitude and longitude members with c. It returns the
// previous values, or ok == false without touching p when either is absent.
func (p Payload) Rewrite(c Coordinates) (oldLat, oldLon json.RawMessage, ok bool, err error) {
	oldLat, hasLat := p.Lookup(LatKey)
	oldLon, hasLon := p.Lookup(LonKey)
	if !hasLat || !hasLon {
		return nil, nil, false, nil
	}
	lat, err := json.Marshal(c.Lat)
	if err != nil {
		return nil, nil, false, fmt.Errorf("%w: %v", ErrEncodePayload, err)
	}
	lon, err := json.Marshal(c.Lon)
	if err != nil {
		return nil, nil, false, fmt.Errorf("%w: %v", ErrEncodePayload, err)
	}
	p[LatKey] = lat
	p[LonKey] = lon
	return oldLat, oldLon, true, nil
}

// Marshal serializes p with keys in sorted order.
func (p Payload) Marshal() ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]json.RawMessage(p)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodePayload, err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
