package serp

import (
	"context"
	"net/url"
	"strconv"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/infrastructure/clients/httpclient"
	"github.com/zatekoja/articleforge/pkg/config"
)

const providerName = "serpapi"

var _ providers.SERPProvider = (*SerpAPIAdapter)(nil)

// SerpAPIAdapter serves serp_results from a SerpAPI-style JSON search endpoint
type SerpAPIAdapter struct {
	client *httpclient.Client
	apiKey string
}

// NewSerpAPIAdapter builds the adapter over an injected transport
func NewSerpAPIAdapter(cfg config.ProviderConfig, doer httpclient.Doer) *SerpAPIAdapter {
	return &SerpAPIAdapter{
		client: httpclient.New(httpclient.Options{
			Name:    providerName,
			BaseURL: cfg.BaseURL,
			Doer:    doer,
			Timeout: cfg.Timeout,
			RPM:     cfg.RPM,
			Auth:    httpclient.QueryParam("api_key", cfg.APIKey),
		}),
		apiKey: cfg.APIKey,
	}
}

type searchResponse struct {
	Error             string `json:"error"`
	SearchInformation struct {
		TotalResults int64 `json:"total_results"`
	} `json:"search_information"`
	AnswerBox *struct {
		Snippet string `json:"snippet"`
		Answer  string `json:"answer"`
	} `json:"answer_box"`
	OrganicResults []struct {
		Position int    `json:"position"`
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
	} `json:"organic_results"`
}

// SERPResults returns the organic results for the keyword
func (a *SerpAPIAdapter) SERPResults(ctx context.Context, req providers.SERPRequest) providers.Result[entities.SERPResults] {
	if a.apiKey == "" {
		return providers.Fail[entities.SERPResults](httpclient.MissingCredential(providerName))
	}

	depth := req.Depth
	if depth <= 0 {
		depth = 10
	}
	query := url.Values{}
	query.Set("engine", "google")
	query.Set("q", req.Keyword)
	query.Set("num", strconv.Itoa(depth))
	if req.Locale != "" {
		query.Set("hl", req.Locale)
	}

	var resp searchResponse
	if perr := a.client.DoJSON(ctx, httpclient.Request{Path: "/search.json", Query: query}, &resp); perr != nil {
		return providers.Fail[entities.SERPResults](perr)
	}
	if resp.Error != "" && len(resp.OrganicResults) == 0 {
		return providers.Fail[entities.SERPResults](httpclient.SchemaError("serp error: %s", resp.Error))
	}

	out := entities.SERPResults{
		Keyword:      req.Keyword,
		TotalResults: resp.SearchInformation.TotalResults,
		Organic:      make([]entities.SERPResult, 0, len(resp.OrganicResults)),
	}
	if resp.AnswerBox != nil {
		out.FeaturedSnippet = resp.AnswerBox.Snippet
		if out.FeaturedSnippet == "" {
			out.FeaturedSnippet = resp.AnswerBox.Answer
		}
	}
	for _, r := range resp.OrganicResults {
		out.Organic = append(out.Organic, entities.SERPResult{
			Position: r.Position,
			Title:    r.Title,
			URL:      r.Link,
			Snippet:  r.Snippet,
		})
	}
	return providers.OK(out, a.client.Meta(providers.EndpointSERPResults))
}
