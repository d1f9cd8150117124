package models

import (
	"errors"
	"fmt"
)

// Common errors used throughout the application
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrCertificateNotFound  = errors.New("certificate not found")
	ErrForbidden            = errors.New("insufficient permissions")
	ErrDuplicateEntry       = errors.New("duplicate entry")
	ErrConcurrencyConflict  = errors.New("concurrent modification conflict")
)

// ValidationError represents a rejected input. It maps to a 400 response and
// is never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with a formatted message
func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError returns true if err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
