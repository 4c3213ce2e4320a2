package kv

import "errors"

var (
	ErrInvalidDriver = errors.New("invalid kv driver")
	ErrInvalidConfig = errors.New("invalid kv configuration")
	ErrClosed        = errors.New("kv store closed")
)
