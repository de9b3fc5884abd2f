package keywords

import (
	"context"
	"fmt"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/infrastructure/clients/httpclient"
	"github.com/zatekoja/articleforge/pkg/config"
)

const (
	providerName        = "dataforseo"
	defaultLocationCode = 2840
	defaultLanguage     = "en"
	taskOK              = 20000
)

var _ providers.KeywordProvider = (*DataForSEOAdapter)(nil)

// DataForSEOAdapter serves keyword_metrics and related_keywords from a DataForSEO-style API
type DataForSEOAdapter struct {
	client   *httpclient.Client
	hasCreds bool
}

// NewDataForSEOAdapter builds the adapter over an injected transport
func NewDataForSEOAdapter(cfg config.ProviderConfig, doer httpclient.Doer) *DataForSEOAdapter {
	return &DataForSEOAdapter{
		client: httpclient.New(httpclient.Options{
			Name:    providerName,
			BaseURL: cfg.BaseURL,
			Doer:    doer,
			Timeout: cfg.Timeout,
			RPM:     cfg.RPM,
			Auth:    httpclient.Basic(cfg.Login, cfg.Password),
		}),
		hasCreds: cfg.Login != "" && cfg.Password != "",
	}
}

type task[T any] struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Result        []T    `json:"result"`
}

type envelope[T any] struct {
	StatusCode    int       `json:"status_code"`
	StatusMessage string    `json:"status_message"`
	Tasks         []task[T] `json:"tasks"`
}

type volumeResult struct {
	Keyword          string   `json:"keyword"`
	SearchVolume     *int     `json:"search_volume"`
	CPC              *float64 `json:"cpc"`
	CompetitionIndex *int     `json:"competition_index"`
	MonthlySearches  []struct {
		Year         int `json:"year"`
		Month        int `json:"month"`
		SearchVolume int `json:"search_volume"`
	} `json:"monthly_searches"`
}

type relatedResult struct {
	Items []struct {
		Depth       int `json:"depth"`
		KeywordData struct {
			Keyword     string `json:"keyword"`
			KeywordInfo struct {
				SearchVolume *int `json:"search_volume"`
			} `json:"keyword_info"`
		} `json:"keyword_data"`
	} `json:"items"`
}

// KeywordMetrics returns search volume, CPC and competition for the keyword
func (a *DataForSEOAdapter) KeywordMetrics(ctx context.Context, req providers.KeywordRequest) providers.Result[entities.KeywordMetrics] {
	meta := a.client.Meta(providers.EndpointKeywordMetrics)
	if !a.hasCreds {
		return providers.Fail[entities.KeywordMetrics](httpclient.MissingCredential(providerName))
	}

	body := []map[string]interface{}{{
		"keywords":      []string{req.Keyword},
		"language_code": language(req.Locale),
		"location_code": defaultLocationCode,
	}}
	var env envelope[volumeResult]
	if perr := a.client.DoJSON(ctx, httpclient.Request{
		Method:         "POST",
		Path:           "/v3/keywords_data/google_ads/search_volume/live",
		Body:           body,
		IdempotencyKey: req.Slug,
	}, &env); perr != nil {
		return providers.Fail[entities.KeywordMetrics](perr)
	}

	results, perr := firstTask(env)
	if perr != nil {
		return providers.Fail[entities.KeywordMetrics](perr)
	}
	if len(results) == 0 {
		return providers.Fail[entities.KeywordMetrics](httpclient.SchemaError("no search volume result for %q", req.Keyword))
	}

	r := results[0]
	out := entities.KeywordMetrics{Keyword: req.Keyword}
	if r.SearchVolume != nil {
		out.SearchVolume = *r.SearchVolume
	}
	if r.CPC != nil {
		out.CPC = *r.CPC
	}
	if r.CompetitionIndex != nil {
		out.Competition = float64(*r.CompetitionIndex) / 100
		out.Difficulty = *r.CompetitionIndex
	}
	for _, m := range r.MonthlySearches {
		out.Trend = append(out.Trend, m.SearchVolume)
	}
	return providers.OK(out, meta)
}

// RelatedKeywords returns keywords adjacent to the seed
func (a *DataForSEOAdapter) RelatedKeywords(ctx context.Context, req providers.KeywordRequest) providers.Result[entities.RelatedKeywords] {
	meta := a.client.Meta(providers.EndpointRelatedKeywords)
	if !a.hasCreds {
		return providers.Fail[entities.RelatedKeywords](httpclient.MissingCredential(providerName))
	}

	limit := req.MaxItems
	if limit <= 0 {
		limit = 20
	}
	body := []map[string]interface{}{{
		"keyword":       req.Keyword,
		"language_code": language(req.Locale),
		"location_code": defaultLocationCode,
		"limit":         limit,
	}}
	var env envelope[relatedResult]
	if perr := a.client.DoJSON(ctx, httpclient.Request{
		Method:         "POST",
		Path:           "/v3/dataforseo_labs/google/related_keywords/live",
		Body:           body,
		IdempotencyKey: req.Slug,
	}, &env); perr != nil {
		return providers.Fail[entities.RelatedKeywords](perr)
	}

	results, perr := firstTask(env)
	if perr != nil {
		return providers.Fail[entities.RelatedKeywords](perr)
	}

	out := entities.RelatedKeywords{Keyword: req.Keyword, Items: []entities.RelatedKeyword{}}
	for _, r := range results {
		for _, item := range r.Items {
			kw := item.KeywordData.Keyword
			if kw == "" {
				continue
			}
			rk := entities.RelatedKeyword{Keyword: kw, Relevance: 1 / float64(item.Depth+1)}
			if v := item.KeywordData.KeywordInfo.SearchVolume; v != nil {
				rk.SearchVolume = *v
			}
			out.Items = append(out.Items, rk)
		}
	}
	return providers.OK(out, meta)
}

// firstTask unwraps the task envelope; task-level status codes follow the HTTP classes
func firstTask[T any](env envelope[T]) ([]T, *providers.ProviderError) {
	if env.StatusCode != 0 && env.StatusCode != taskOK {
		return nil, taskError(env.StatusCode, env.StatusMessage)
	}
	if len(env.Tasks) == 0 {
		return nil, httpclient.SchemaError("response has no tasks")
	}
	t := env.Tasks[0]
	if t.StatusCode != taskOK {
		return nil, taskError(t.StatusCode, t.StatusMessage)
	}
	return t.Result, nil
}

func taskError(code int, message string) *providers.ProviderError {
	detail := fmt.Sprintf("task status %d: %s", code, message)
	switch {
	case code == 40100 || code == 40101:
		return providers.NewProviderError(providers.ErrAuthRejected, detail)
	case code == 40202 || code == 42900:
		return providers.NewProviderError(providers.ErrRateLimited, detail)
	case code >= 50000:
		return providers.NewProviderError(providers.ErrUpstream5xx, detail)
	default:
		return providers.NewProviderError(providers.ErrUpstream4xx, detail)
	}
}

func language(locale string) string {
	if len(locale) >= 2 {
		return locale[:2]
	}
	return defaultLanguage
}
