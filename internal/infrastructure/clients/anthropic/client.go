package anthropic

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/infrastructure/clients/httpclient"
	"github.com/zatekoja/articleforge/pkg/config"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	defaultModel   = "claude-sonnet-4-5"
	apiVersion     = "2023-06-01"
)

// Client calls the Anthropic Messages API
type Client struct {
	apiKey string
	model  string
	http   *httpclient.Client
}

// NewClient creates a Messages API client. A missing key is reported per call as auth_missing.
func NewClient(cfg config.ProviderConfig, doer httpclient.Doer) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey: cfg.APIKey,
		model:  model,
		http: httpclient.New(httpclient.Options{
			Name:    "anthropic",
			BaseURL: baseURL,
			Doer:    doer,
			Timeout: cfg.Timeout,
			RPM:     cfg.RPM,
			Auth:    httpclient.Header("x-api-key", cfg.APIKey),
			Headers: map[string]string{"anthropic-version": apiVersion},
		}),
	}
}

// Provider returns the provider name
func (c *Client) Provider() string { return "anthropic" }

// Model returns the configured model
func (c *Client) Model() string { return c.model }

// Close releases the rate limiter
func (c *Client) Close() { c.http.Close() }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete sends one user turn and returns the concatenated text blocks
func (c *Client) Complete(ctx context.Context, system, user string, maxTokens int) (string, *providers.ProviderError) {
	if c.apiKey == "" {
		return "", httpclient.MissingCredential("anthropic")
	}
	if maxTokens <= 0 {
		maxTokens = 2000
	}

	start := time.Now()
	var resp messagesResponse
	perr := c.http.DoJSON(ctx, httpclient.Request{
		Method: "POST",
		Path:   "/v1/messages",
		Body: messagesRequest{
			Model:     c.model,
			MaxTokens: maxTokens,
			System:    system,
			Messages:  []message{{Role: "user", Content: user}},
		},
	}, &resp)
	if perr != nil {
		return "", perr
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", httpclient.SchemaError("anthropic response has no text content")
	}

	log.Ctx(ctx).Debug().
		Str("model", c.model).
		Str("stop_reason", resp.StopReason).
		Int("input_tokens", resp.Usage.InputTokens).
		Int("output_tokens", resp.Usage.OutputTokens).
		Dur("duration", time.Since(start)).
		Msg("anthropic completion")

	return strings.TrimSpace(b.String()), nil
}
