package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zatekoja/articleforge/internal/domain/providers"
)

const maxResponseBytes = 8 << 20

// Doer is the transport seam adapters accept; *http.Client satisfies it
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Authenticator decorates an outgoing request with credentials
type Authenticator func(req *http.Request)

// Bearer sets an Authorization: Bearer header
func Bearer(token string) Authenticator {
	return func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) }
}

// Basic sets HTTP basic auth
func Basic(login, password string) Authenticator {
	return func(req *http.Request) { req.SetBasicAuth(login, password) }
}

// Header sets a single credential header
func Header(name, value string) Authenticator {
	return func(req *http.Request) { req.Header.Set(name, value) }
}

// QueryParam appends a credential query parameter
func QueryParam(name, value string) Authenticator {
	return func(req *http.Request) {
		q := req.URL.Query()
		q.Set(name, value)
		req.URL.RawQuery = q.Encode()
	}
}

// Options configures a Client
type Options struct {
	Name    string
	BaseURL string
	Doer    Doer
	Timeout time.Duration
	RPM     int
	Burst   int
	Auth    Authenticator
	Headers map[string]string
}

// Client performs classified JSON round trips against one provider
type Client struct {
	name    string
	baseURL string
	doer    Doer
	limiter *TokenBucket
	auth    Authenticator
	headers map[string]string
	now     func() time.Time
}

// New builds a client. A nil Doer gets an *http.Client with opts.Timeout.
func New(opts Options) *Client {
	doer := opts.Doer
	if doer == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		doer = &http.Client{Timeout: timeout}
	}
	return &Client{
		name:    opts.Name,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		doer:    doer,
		limiter: NewTokenBucket(opts.RPM, opts.Burst),
		auth:    opts.Auth,
		headers: opts.Headers,
		now:     time.Now,
	}
}

// Name returns the provider name used in metadata
func (c *Client) Name() string {
	return c.name
}

// BaseURL returns the configured base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close stops the rate limiter
func (c *Client) Close() {
	c.limiter.Stop()
}

// Request describes one round trip
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        interface{}
	RawBody     []byte
	ContentType string
	Accept      string
	// IdempotencyKey is forwarded as Idempotency-Key when set
	IdempotencyKey string
}

// Response is a successful raw round trip
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Do performs the request and classifies any failure. It never retries.
func (c *Client) Do(ctx context.Context, r Request) (*Response, *providers.ProviderError) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, ClassifyTransport(err)
	}

	endpoint, err := url.Parse(c.baseURL + r.Path)
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrTransport, fmt.Sprintf("invalid endpoint: %v", err))
	}
	if len(r.Query) > 0 {
		q := endpoint.Query()
		for k, vs := range r.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		endpoint.RawQuery = q.Encode()
	}

	var body io.Reader
	contentType := r.ContentType
	switch {
	case r.RawBody != nil:
		body = bytes.NewReader(r.RawBody)
	case r.Body != nil:
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, SchemaError("failed to encode request: %v", err)
		}
		body = bytes.NewReader(data)
		if contentType == "" {
			contentType = "application/json"
		}
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrTransport, err.Error())
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	accept := r.Accept
	if accept == "" {
		accept = "application/json"
	}
	req.Header.Set("Accept", accept)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if r.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", r.IdempotencyKey)
	}
	if c.auth != nil {
		c.auth(req)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, ClassifyTransport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, ClassifyTransport(err)
	}

	if perr := Classify(resp.StatusCode, data); perr != nil {
		if perr.Kind == providers.ErrRateLimited {
			perr.RetryAfter = ParseRetryAfter(resp.Header.Get("Retry-After"), c.now())
		}
		return nil, perr
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// DoJSON performs the request and decodes a JSON response into out
func (c *Client) DoJSON(ctx context.Context, r Request, out interface{}) *providers.ProviderError {
	resp, perr := c.Do(ctx, r)
	if perr != nil {
		return perr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return SchemaError("failed to decode %s response: %v", c.name, err)
	}
	return nil
}

// Meta returns result metadata for an endpoint served by this client
func (c *Client) Meta(endpoint string) providers.ResultMeta {
	return providers.ResultMeta{Endpoint: endpoint, Provider: c.name}
}
