package valuation

import (
	"context"
	"strings"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/infrastructure/clients/httpclient"
	"github.com/zatekoja/articleforge/pkg/config"
)

const providerName = "valuation"

var _ providers.ValuationProvider = (*HTTPAdapter)(nil)

// HTTPAdapter serves value_range from a JSON estimate service
type HTTPAdapter struct {
	client *httpclient.Client
	apiKey string
}

// NewHTTPAdapter builds the adapter over an injected transport
func NewHTTPAdapter(cfg config.ProviderConfig, doer httpclient.Doer) *HTTPAdapter {
	return &HTTPAdapter{
		client: httpclient.New(httpclient.Options{
			Name:    providerName,
			BaseURL: cfg.BaseURL,
			Doer:    doer,
			Timeout: cfg.Timeout,
			RPM:     cfg.RPM,
			Auth:    httpclient.Bearer(cfg.APIKey),
		}),
		apiKey: cfg.APIKey,
	}
}

type estimateResponse struct {
	Low      *float64 `json:"low"`
	High     *float64 `json:"high"`
	Currency string   `json:"currency"`
	Source   string   `json:"source"`
}

// ValueRange maps a short description to a price band
func (a *HTTPAdapter) ValueRange(ctx context.Context, req providers.ValuationRequest) providers.Result[entities.ValuationRange] {
	if a.apiKey == "" || a.client.BaseURL() == "" {
		return providers.Fail[entities.ValuationRange](httpclient.MissingCredential(providerName))
	}

	var resp estimateResponse
	if perr := a.client.DoJSON(ctx, httpclient.Request{
		Method:         "POST",
		Path:           "/v1/estimate",
		Body:           map[string]string{"description": req.Description},
		IdempotencyKey: req.Slug,
	}, &resp); perr != nil {
		return providers.Fail[entities.ValuationRange](perr)
	}

	if resp.Low == nil || resp.High == nil || *resp.Low < 0 || *resp.High < *resp.Low {
		return providers.Fail[entities.ValuationRange](httpclient.SchemaError("estimate has an invalid range"))
	}
	currency := strings.ToUpper(strings.TrimSpace(resp.Currency))
	if currency == "" {
		currency = "USD"
	}
	source := resp.Source
	if source == "" {
		source = providerName
	}
	return providers.OK(entities.ValuationRange{
		Low:      *resp.Low,
		High:     *resp.High,
		Currency: currency,
		Blurb:    req.Description,
		Source:   source,
	}, a.client.Meta(providers.EndpointValueRange))
}
