// Package domain holds types shared across modules: the error taxonomy and
// the API response envelope.
package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound signals that a referenced record does not exist. Handlers map
// it to a 404 response.
var ErrNotFound = errors.New("not found")

// ValidationError signals bad caller input (missing required field, missing
// conditions on validate). It is never retried and maps to a 400 response.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with a formatted message.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundf wraps ErrNotFound with context about what was missing.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}
