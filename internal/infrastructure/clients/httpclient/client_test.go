package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/articleforge/internal/domain/providers"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		status    int
		kind      providers.ErrorKind
		retriable bool
	}{
		{http.StatusUnauthorized, providers.ErrAuthRejected, false},
		{http.StatusForbidden, providers.ErrAuthRejected, false},
		{http.StatusTooManyRequests, providers.ErrRateLimited, true},
		{http.StatusRequestTimeout, providers.ErrTimeout, true},
		{http.StatusInternalServerError, providers.ErrUpstream5xx, true},
		{http.StatusBadGateway, providers.ErrUpstream5xx, true},
		{http.StatusNotFound, providers.ErrUpstream4xx, false},
		{http.StatusUnprocessableEntity, providers.ErrUpstream4xx, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			perr := Classify(tt.status, []byte("boom"))
			require.NotNil(t, perr)
			assert.Equal(t, tt.kind, perr.Kind)
			assert.Equal(t, tt.retriable, perr.Retriable)
			assert.Equal(t, tt.status, perr.StatusCode)
		})
	}

	assert.Nil(t, Classify(http.StatusOK, nil))
	assert.Nil(t, Classify(http.StatusCreated, nil))
}

func TestClassifyTransport(t *testing.T) {
	assert.Equal(t, providers.ErrTimeout, ClassifyTransport(context.DeadlineExceeded).Kind)
	assert.True(t, ClassifyTransport(context.DeadlineExceeded).Retriable)
	assert.False(t, ClassifyTransport(context.Canceled).Retriable)
	assert.Equal(t, providers.ErrTransport, ClassifyTransport(errors.New("connection reset")).Kind)
	assert.Equal(t, providers.ErrAuthMissing, MissingCredential("serp").Kind)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 7*time.Second, ParseRetryAfter("7", now))
	assert.Equal(t, 30*time.Second, ParseRetryAfter(now.Add(30*time.Second).Format(http.TimeFormat), now))
	assert.Zero(t, ParseRetryAfter("", now))
	assert.Zero(t, ParseRetryAfter("soon", now))
}

func TestClientDoJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "rolex", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "rolex submariner", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":42}`))
	}))
	defer server.Close()

	client := New(Options{Name: "test", BaseURL: server.URL, Doer: server.Client(), Auth: Bearer("secret")})
	defer client.Close()

	var out struct {
		Value int `json:"value"`
	}
	perr := client.DoJSON(context.Background(), Request{
		Path:           "/search",
		Query:          map[string][]string{"q": {"rolex submariner"}},
		IdempotencyKey: "rolex",
	}, &out)
	require.Nil(t, perr)
	assert.Equal(t, 42, out.Value)
}

func TestClientClassifiesFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/limited":
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusTooManyRequests)
		case "/broken":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/garbage":
			_, _ = w.Write([]byte("<html>"))
		}
	}))
	defer server.Close()

	client := New(Options{Name: "test", BaseURL: server.URL, Doer: server.Client()})
	ctx := context.Background()

	perr := client.DoJSON(ctx, Request{Path: "/limited"}, &struct{}{})
	require.NotNil(t, perr)
	assert.Equal(t, providers.ErrRateLimited, perr.Kind)
	assert.Equal(t, 3*time.Second, perr.RetryAfter)

	perr = client.DoJSON(ctx, Request{Path: "/broken"}, &struct{}{})
	require.NotNil(t, perr)
	assert.Equal(t, providers.ErrUpstream5xx, perr.Kind)

	perr = client.DoJSON(ctx, Request{Path: "/garbage"}, &struct{}{})
	require.NotNil(t, perr)
	assert.Equal(t, providers.ErrSchema, perr.Kind)
	assert.False(t, perr.Retriable)
}

func TestClientDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	client := New(Options{Name: "slow", BaseURL: server.URL, Doer: server.Client()})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, perr := client.Do(ctx, Request{Path: "/"})
	require.NotNil(t, perr)
	assert.Equal(t, providers.ErrTimeout, perr.Kind)
}

func TestTokenBucket(t *testing.T) {
	assert.Nil(t, NewTokenBucket(0, 1))

	bucket := NewTokenBucket(1, 1)
	defer bucket.Stop()
	require.NoError(t, bucket.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bucket.Wait(ctx), context.DeadlineExceeded)
}
