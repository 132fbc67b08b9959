// Package storage holds the error vocabulary shared by every persistence backend.
package storage

import "errors"

var (
	// ErrNotFound is returned when no document matches the lookup, including malformed identifiers.
	ErrNotFound = errors.New("storage: document not found")
	// ErrDuplicate reports a unique index violation.
	ErrDuplicate = errors.New("storage: duplicate key")
	// ErrConflict reports a conditional update whose precondition no longer holds.
	ErrConflict = errors.New("storage: conditional update lost")
	// ErrUnavailable means the backend could not be reached; callers may retry.
	ErrUnavailable = errors.New("storage: backend unavailable")
)

// IsUnavailable is a shorthand used by transport layers when choosing between 500 and 503.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
