package order

import "errors"

var (
	// ErrNotFound is returned for unknown or malformed order ids.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidTransition is returned when the requested status is not reachable from the current one.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNumberConflict is returned when both generated order numbers were already taken.
	ErrNumberConflict = errors.New("could not allocate a unique order number")
)

// validationError communicates rule violations back to HTTP handlers.
type validationError struct {
	message string
}

func (e validationError) Error() string { return e.message }

func newValidationError(msg string) error {
	return validationError{message: msg}
}

// IsValidation helps callers distinguish between business and infrastructure failures.
func IsValidation(err error) bool {
	var v validationError
	return errors.As(err, &v)
}
