package cms

import (
	"context"
	"strconv"

	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/infrastructure/clients/httpclient"
	"github.com/zatekoja/articleforge/pkg/config"
)

const providerName = "wordpress"

var _ providers.Publisher = (*WordPressPublisher)(nil)

// WordPressPublisher creates posts through the WordPress REST API
type WordPressPublisher struct {
	client *httpclient.Client
	token  string
}

// NewWordPressPublisher builds the publisher over an injected transport
func NewWordPressPublisher(cfg config.ProviderConfig, doer httpclient.Doer) *WordPressPublisher {
	return &WordPressPublisher{
		client: httpclient.New(httpclient.Options{
			Name:    providerName,
			BaseURL: cfg.BaseURL,
			Doer:    doer,
			Timeout: cfg.Timeout,
			RPM:     cfg.RPM,
			Auth:    httpclient.Bearer(cfg.APIKey),
		}),
		token: cfg.APIKey,
	}
}

type postResponse struct {
	ID   int    `json:"id"`
	Link string `json:"link"`
}

// Publish creates a post; the slug doubles as the idempotency key
func (p *WordPressPublisher) Publish(ctx context.Context, req providers.PublishRequest) providers.Result[providers.PublishReceipt] {
	if p.token == "" || p.client.BaseURL() == "" {
		return providers.Fail[providers.PublishReceipt](httpclient.MissingCredential(providerName))
	}
	status := req.Status
	if status == "" {
		status = "draft"
	}

	var resp postResponse
	if perr := p.client.DoJSON(ctx, httpclient.Request{
		Method: "POST",
		Path:   "/wp-json/wp/v2/posts",
		Body: map[string]interface{}{
			"slug":    req.Slug,
			"title":   req.Title,
			"excerpt": req.Excerpt,
			"content": req.Markdown,
			"status":  status,
		},
		IdempotencyKey: req.Slug,
	}, &resp); perr != nil {
		return providers.Fail[providers.PublishReceipt](perr)
	}
	if resp.ID == 0 {
		return providers.Fail[providers.PublishReceipt](httpclient.SchemaError("post response has no id"))
	}
	return providers.OK(providers.PublishReceipt{ID: strconv.Itoa(resp.ID), URL: resp.Link}, p.client.Meta(providers.EndpointPublish))
}
