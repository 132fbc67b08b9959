package auth

import "errors"

var (
	// ErrDuplicateEmail is returned when signing up with an email that already has an account.
	ErrDuplicateEmail = errors.New("user with this email already exists")
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken is returned for tokens that fail signature, algorithm or expiry checks.
	ErrInvalidToken = errors.New("invalid or expired token")
)

type validationError struct {
	message string
}

func (e validationError) Error() string { return e.message }

func newValidationError(msg string) error {
	return validationError{message: msg}
}

// IsValidation reports whether err was caused by a malformed signup or login form.
func IsValidation(err error) bool {
	var v validationError
	return errors.As(err, &v)
}
