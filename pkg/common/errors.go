package common

import (
	"errors"
	"fmt"
)

// ValidationError reports input the engine refuses to work with, such as too
// few actors or an edge without endpoints. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// UpstreamError wraps a failure of an external collaborator (embedding
// provider or naming service).
type UpstreamError struct {
	Collaborator string
	Err          error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s collaborator failed: %v", e.Collaborator, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies err for status reporting: "validation", "upstream"
// or "internal".
func ErrorKind(err error) string {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	var uErr *UpstreamError
	if errors.As(err, &uErr) {
		return "upstream"
	}
	return "internal"
}

// Job and response status values.
const (
	StatusDone           = "done"
	StatusInvalid        = "invalid"
	StatusUpstreamFailed = "upstream_failed"
	StatusInternalError  = "internal_error"
)

// StatusFor maps err onto the status reported to callers. A nil error is
// StatusDone.
func StatusFor(err error) string {
	if err == nil {
		return StatusDone
	}
	switch ErrorKind(err) {
	case "validation":
		return StatusInvalid
	case "upstream":
		return StatusUpstreamFailed
	default:
		return StatusInternalError
	}
}
