package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTaskNotFound means the id does not exist for the requesting owner.
	ErrTaskNotFound = errors.New("task not found")
	// ErrStoreUnavailable wraps timeouts and transient store failures. The
	// dispatcher retries it once before surfacing it.
	ErrStoreUnavailable = errors.New("task store unavailable")
)

// ValidationError reports a field that is out of contract. No store call is
// attempted when one is raised.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// AsValidation unwraps a ValidationError if err carries one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
