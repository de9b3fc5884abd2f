package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/articleforge/internal/domain/providers"
)

const maxDetailBytes = 256

// Classify maps a non-2xx status to a provider error. It returns nil for 2xx.
func Classify(status int, body []byte) *providers.ProviderError {
	if status >= 200 && status < 300 {
		return nil
	}

	var kind providers.ErrorKind
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = providers.ErrAuthRejected
	case status == http.StatusTooManyRequests:
		kind = providers.ErrRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = providers.ErrTimeout
	case status >= 500:
		kind = providers.ErrUpstream5xx
	default:
		kind = providers.ErrUpstream4xx
	}

	perr := providers.NewProviderError(kind, fmt.Sprintf("status %d: %s", status, snippet(body)))
	perr.StatusCode = status
	return perr
}

// ClassifyTransport maps an error from the round trip itself
func ClassifyTransport(err error) *providers.ProviderError {
	if err == nil {
		return nil
	}
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return providers.NewProviderError(providers.ErrTimeout, err.Error())
	case errors.Is(err, context.Canceled):
		// not retriable: the caller went away
		return &providers.ProviderError{Kind: providers.ErrTimeout, Retriable: false, Detail: err.Error()}
	case errors.As(err, &netErr) && netErr.Timeout():
		return providers.NewProviderError(providers.ErrTimeout, err.Error())
	default:
		return providers.NewProviderError(providers.ErrTransport, err.Error())
	}
}

// SchemaError reports a payload that could not be decoded into the expected shape
func SchemaError(format string, args ...interface{}) *providers.ProviderError {
	return providers.NewProviderError(providers.ErrSchema, fmt.Sprintf(format, args...))
}

// MissingCredential reports that the provider cannot be called without a credential
func MissingCredential(provider string) *providers.ProviderError {
	return providers.NewProviderError(providers.ErrAuthMissing, provider+" credential is not configured")
}

// ParseRetryAfter reads a Retry-After header given in seconds or as an HTTP date
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxDetailBytes {
		s = s[:maxDetailBytes] + "..."
	}
	return s
}
