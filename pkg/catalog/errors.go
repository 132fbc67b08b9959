package catalog

import "errors"

// ErrUnavailable is returned when the catalog cannot be read. An empty menu is not an error.
var ErrUnavailable = errors.New("catalog unavailable")

type validationError struct {
	message string
}

func (e validationError) Error() string { return e.message }

func newValidationError(msg string) error {
	return validationError{message: msg}
}

// IsValidation reports whether err was caused by bad caller input.
func IsValidation(err error) bool {
	var v validationError
	return errors.As(err, &v)
}
