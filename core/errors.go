package core

import (
	"errors"
	"fmt"
)

// ErrValidation is matched (errors.Is) by every ValidationError.
var ErrValidation = errors.New("validation error")

// ValidationError reports caller misuse detected before any network call.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("serenitystar: %s", e.Message)
	}
	return fmt.Sprintf("serenitystar: invalid %s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// HTTPError is returned for any non-2xx response. Body holds the raw
// response body for diagnosis.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("serenitystar: %s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("serenitystar: %s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// DecodeError is returned when a non-streaming response body cannot be
// decoded into the expected shape.
type DecodeError struct {
	Body []byte
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("serenitystar: decode response: %v", e.Err)
}

// Unwrap returns the underlying decode failure.
func (e *DecodeError) Unwrap() error { return e.Err }

// StatusCode extracts the HTTP status from err, or 0 when err is not an
// HTTPError.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}
