package providers

import (
	"fmt"
	"time"
)

// ErrorKind classifies a provider failure
type ErrorKind string

const (
	ErrAuthMissing  ErrorKind = "auth_missing"
	ErrAuthRejected ErrorKind = "auth_rejected"
	ErrRateLimited  ErrorKind = "rate_limited"
	ErrTimeout      ErrorKind = "timeout"
	ErrTransport    ErrorKind = "transport"
	ErrUpstream5xx  ErrorKind = "upstream_5xx"
	ErrUpstream4xx  ErrorKind = "upstream_4xx"
	ErrSchema       ErrorKind = "schema"
)

// Retriable reports whether failures of this kind may succeed on a later attempt
func (k ErrorKind) Retriable() bool {
	switch k {
	case ErrRateLimited, ErrTimeout, ErrTransport, ErrUpstream5xx:
		return true
	}
	return false
}

// ProviderError is the Err variant of a Result
type ProviderError struct {
	Kind       ErrorKind
	Retriable  bool
	Detail     string
	StatusCode int
	// RetryAfter is the provider's requested wait, when it sent one
	RetryAfter time.Duration
}

// Error implements the error interface so the retry loop can carry it
func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// NewProviderError builds an error whose retriable flag follows its kind
func NewProviderError(kind ErrorKind, detail string) *ProviderError {
	return &ProviderError{Kind: kind, Retriable: kind.Retriable(), Detail: detail}
}

// ResultMeta describes where a payload came from
type ResultMeta struct {
	Endpoint string                 `json:"endpoint"`
	Provider string                 `json:"provider,omitempty"`
	Mock     bool                   `json:"mock,omitempty"`
	Attempts int                    `json:"attempts,omitempty"`
	Degraded string                 `json:"degraded,omitempty"`
	Extra    map[string]interface{} `json:"extra,omitempty"`
}

// Result is the typed return of every adapter call: either a value or an error, never both
type Result[T any] struct {
	Value T
	Meta  ResultMeta
	Err   *ProviderError
}

// OK builds a successful result
func OK[T any](value T, meta ResultMeta) Result[T] {
	return Result[T]{Value: value, Meta: meta}
}

// Fail builds a failed result
func Fail[T any](err *ProviderError) Result[T] {
	return Result[T]{Err: err}
}

// IsOK reports whether the call succeeded
func (r Result[T]) IsOK() bool {
	return r.Err == nil
}
