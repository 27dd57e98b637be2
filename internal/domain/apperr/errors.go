// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports missing or malformed caller input
type ValidationError struct {
	Field   string
	Message string
	// Missing is set when the field was absent rather than malformed
	Missing bool
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewMissingParameterError creates a validation error for an absent field
func NewMissingParameterError(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("%s is required", field),
		Missing: true,
	}
}

// IsMissingParameter reports whether err is a validation error for an absent field
func IsMissingParameter(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr) && validationErr.Missing
}

// UpstreamError reports a failed call to the upstream API.
// StatusCode is zero when no HTTP response was received.
type UpstreamError struct {
	Tag        string
	StatusCode int
	Message    string
	Attempts   int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("upstream %s failed after %d attempt(s): %s", e.Tag, e.Attempts, e.Message)
	}
	return fmt.Sprintf("upstream %s returned %d after %d attempt(s): %s", e.Tag, e.StatusCode, e.Attempts, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Throttled reports whether upstream rejected the call for rate limiting
func (e *UpstreamError) Throttled() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// HTTPStatus returns the status the error maps to on our own API
func (e *UpstreamError) HTTPStatus() int {
	if e.StatusCode >= 400 && e.StatusCode <= 599 {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

// HTTPStatus maps any error to the most specific HTTP status available
func HTTPStatus(err error) int {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}

	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.HTTPStatus()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}

	return http.StatusInternalServerError
}

// Message returns the caller-facing message of an error
func Message(err error) string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}

	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) && upstreamErr.Message != "" {
		return upstreamErr.Message
	}

	return err.Error()
}
