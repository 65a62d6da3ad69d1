package tracker

import "errors"

var (
	// ErrNotFound reports a story that does not exist (or is not visible to
	// the caller).
	ErrNotFound = errors.New("not found")

	// ErrValidation reports a malformed request, rejected before any I/O.
	ErrValidation = errors.New("validation failed")
)
