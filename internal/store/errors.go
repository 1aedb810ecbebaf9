package store

import "errors"

// Sentinel errors returned by store operations. Callers branch on these
// with errors.Is to shape tool-boundary responses.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalid indicates a write was rejected by boundary validation.
	ErrInvalid = errors.New("invalid argument")
)
