package geo

import "errors"

// Payload errors
var (
	ErrDecodePayload = errors.New("decode payload")
	ErrPayloadShape  = errors.New("unexpected payload shape")
	ErrEncodePayload = errors.New("encode payload")
)

// Body codec errors
var (
	ErrContentEncoding = errors.New("content encoding")
	ErrCharset         = errors.New("charset")
)
