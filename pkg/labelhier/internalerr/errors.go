package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrMalformedIdentity = errors.New("malformed node identity")
	ErrInvalidEdge       = errors.New("edge is not a boundary reduction")
)
