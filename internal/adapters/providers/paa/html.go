package paa

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/infrastructure/clients/httpclient"
	"github.com/zatekoja/articleforge/pkg/config"
)

const (
	providerName = "serpapi-html"
	maxQuestions = 12
)

var _ providers.PAAProvider = (*HTMLAdapter)(nil)

// HTMLAdapter serves paa_questions by scraping the "people also ask" block of a raw results page
type HTMLAdapter struct {
	client *httpclient.Client
	apiKey string
}

// NewHTMLAdapter builds the adapter over an injected transport
func NewHTMLAdapter(cfg config.ProviderConfig, doer httpclient.Doer) *HTMLAdapter {
	return &HTMLAdapter{
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

// PAAQuestions fetches the raw page and extracts question/answer pairs
func (a *HTMLAdapter) PAAQuestions(ctx context.Context, req providers.SERPRequest) providers.Result[entities.PAAQuestions] {
	if a.apiKey == "" {
		return providers.Fail[entities.PAAQuestions](httpclient.MissingCredential(providerName))
	}

	query := url.Values{}
	query.Set("engine", "google")
	query.Set("q", req.Keyword)
	query.Set("output", "html")
	if req.Locale != "" {
		query.Set("hl", req.Locale)
	}

	resp, perr := a.client.Do(ctx, httpclient.Request{Path: "/search", Query: query, Accept: "text/html"})
	if perr != nil {
		return providers.Fail[entities.PAAQuestions](perr)
	}

	questions, err := ParseQuestions(resp.Body)
	if err != nil {
		return providers.Fail[entities.PAAQuestions](httpclient.SchemaError("failed to parse results page: %v", err))
	}
	return providers.OK(entities.PAAQuestions{Keyword: req.Keyword, Questions: questions}, a.client.Meta(providers.EndpointPAAQuestions))
}

// ParseQuestions extracts "people also ask" entries from a results page.
// Questions come from data-q attributes; the answer is the first expanded text block when present.
func ParseQuestions(page []byte) ([]entities.PAAQuestion, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	questions := []entities.PAAQuestion{}
	doc.Find("[data-q]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		q := normalize(s.AttrOr("data-q", ""))
		if q == "" || seen[strings.ToLower(q)] {
			return true
		}
		seen[strings.ToLower(q)] = true

		entry := entities.PAAQuestion{Question: q}
		pair := s.Closest(".related-question-pair")
		if pair.Length() == 0 {
			pair = s
		}
		if answer := pair.Find("[data-attrid='wa:/description'], .wDYxhc").First(); answer.Length() > 0 {
			entry.Answer = normalize(answer.Text())
		}
		if link := pair.Find("a[href^='http']").First(); link.Length() > 0 {
			entry.Source = link.AttrOr("href", "")
		}

		questions = append(questions, entry)
		return len(questions) < maxQuestions
	})
	return questions, nil
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
