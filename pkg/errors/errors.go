package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the stage-visible error taxonomy
type ErrorType string

const (
	// ErrorTypeConfig indicates a missing credential or an invalid root
	ErrorTypeConfig ErrorType = "CONFIG"

	// ErrorTypeUpstreamUnavailable indicates a provider retry budget was exhausted
	ErrorTypeUpstreamUnavailable ErrorType = "UPSTREAM_UNAVAILABLE"

	// ErrorTypeValidation indicates a payload that does not match the expected shape
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypePolicyViolation indicates content that breaks an enforced policy (e.g. SEO density)
	ErrorTypePolicyViolation ErrorType = "POLICY_VIOLATION"

	// ErrorTypeInternal indicates a programmer error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeCancelled indicates a deadline or external cancellation
	ErrorTypeCancelled ErrorType = "CANCELLED"

	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeConflict indicates an operation that collides with one already in progress
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeIO indicates an artifact-store storage failure
	ErrorTypeIO ErrorType = "IO"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	// Reason narrows the type, e.g. "seo_density" or "already_running"
	Reason string
	Err    error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// Kind returns the lower snake case form used in run documents.
func (t ErrorType) Kind() string {
	return strings.ToLower(string(t))
}

// WithReason returns a copy of the error carrying the given reason.
func (e *AppError) WithReason(reason string) *AppError {
	cp := *e
	cp.Reason = reason
	return &cp
}

// NewConfigError creates a new configuration error
func NewConfigError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeConfig, Message: message, Err: err}
}

// NewUpstreamUnavailableError creates a new upstream unavailable error
func NewUpstreamUnavailableError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeUpstreamUnavailable, Message: message, Err: err}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{Type: ErrorTypeValidation, Message: message}
}

// NewPolicyViolationError creates a new policy violation error
func NewPolicyViolationError(message, reason string) *AppError {
	return &AppError{Type: ErrorTypePolicyViolation, Message: message, Reason: reason}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// NewCancelledError creates a new cancellation error
func NewCancelledError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeCancelled, Message: message, Err: err}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// NewConflictError creates a new conflict error
func NewConflictError(message, reason string) *AppError {
	return &AppError{Type: ErrorTypeConflict, Message: message, Reason: reason}
}

// NewIOError creates a new storage error
func NewIOError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeIO, Message: message, Err: err}
}

// TypeOf returns the type of the first AppError in the chain. Context errors
// that were never wrapped map to CANCELLED; anything else is INTERNAL.
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	if IsContextError(err) {
		return ErrorTypeCancelled
	}
	return ErrorTypeInternal
}

// ReasonOf returns the reason of the first AppError in the chain.
func ReasonOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Reason
	}
	return ""
}

// Is reports whether err carries an AppError of the given type.
func Is(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// IsContextError reports whether err stems from context cancellation or deadline.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
