// Package apperr defines the two error kinds the engine surfaces to callers:
// validation failures (fix the request) and missing resources. Both are
// synchronous and non-retryable.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError means the caller supplied malformed input: a bad name,
// fewer than two variants, a non-positive price, an illegal state
// transition, weights that don't sum to 100.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError means the referenced experiment or variant does not exist,
// or is not owned by the caller's tenant.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// Validation creates a ValidationError from a format string.
func Validation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a NotFoundError for the named resource.
func NotFound(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
