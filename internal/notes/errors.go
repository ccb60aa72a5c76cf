package notes

import "errors"

// Store-level errors. They are always surfaced to the caller, wrapped with
// the offending id.
var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateID        = errors.New("duplicate id")
	ErrPermission         = errors.New("permission denied")
	ErrMalformedInput     = errors.New("malformed input")
	ErrInvalidCredentials = errors.New("invalid user id or password")
)
