package clinic

import (
	"errors"
	"fmt"
)

// ErrNotFound signals that a referenced identifier does not exist in a
// collection. It propagates to the caller as an explicit signal.
var ErrNotFound = errors.New("record not found")

// ValidationError rejects an operation before any mutation occurs.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
