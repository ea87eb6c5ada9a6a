package main

import "errors"

// Config errors
var (
	ErrReadConfig      = errors.New("read config file")
	ErrInvalidLogLevel = errors.New("invalid log configuration")
	ErrInvalidCoords   = errors.New("invalid coordinates")
	ErrEmptyHost       = errors.New("empty API host")
)
