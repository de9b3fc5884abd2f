package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/pkg/utils"
)

// Keywords serves keyword_metrics and related_keywords
type Keywords struct{}

// KeywordMetrics derives stable metrics from the keyword
func (Keywords) KeywordMetrics(ctx context.Context, req providers.KeywordRequest) providers.Result[entities.KeywordMetrics] {
	h := hash(req.Keyword)
	volume := 1000 + int(h%49000)
	trend := make([]int, 12)
	for i := range trend {
		trend[i] = volume + int(hash(req.Keyword, fmt.Sprint(i))%2000) - 1000
	}
	return providers.OK(entities.KeywordMetrics{
		Keyword:      req.Keyword,
		SearchVolume: volume,
		CPC:          float64(h%500) / 100,
		Competition:  float64(h%100) / 100,
		Difficulty:   int(h % 100),
		Trend:        trend,
	}, meta(providers.EndpointKeywordMetrics))
}

var relatedPatterns = []string{"%s price", "%s review", "best %s", "%s vs alternatives", "%s history", "how to buy %s", "%s value", "%s guide"}

// RelatedKeywords returns pattern-based neighbours of the keyword
func (Keywords) RelatedKeywords(ctx context.Context, req providers.KeywordRequest) providers.Result[entities.RelatedKeywords] {
	kw := strings.ToLower(req.Keyword)
	limit := req.MaxItems
	if limit <= 0 || limit > len(relatedPatterns) {
		limit = len(relatedPatterns)
	}
	out := entities.RelatedKeywords{Keyword: req.Keyword}
	for i, p := range relatedPatterns[:limit] {
		phrase := fmt.Sprintf(p, kw)
		out.Items = append(out.Items, entities.RelatedKeyword{
			Keyword:      phrase,
			SearchVolume: 100 + int(hash(phrase)%9000),
			Relevance:    1 / float64(i+1),
		})
	}
	return providers.OK(out, meta(providers.EndpointRelatedKeywords))
}

// SERP serves serp_results
type SERP struct{}

var serpPatterns = []string{
	"%s: Official Overview",
	"The Complete %s Buying Guide",
	"%s Review: Is It Worth It?",
	"A Short History of the %s",
	"%s Prices and Market Trends",
	"How to Spot a Genuine %s",
}

// SERPResults returns a fixed set of organic results for the keyword
func (SERP) SERPResults(ctx context.Context, req providers.SERPRequest) providers.Result[entities.SERPResults] {
	display := utils.TitleCase(req.Keyword)
	slug := utils.Slugify(req.Keyword)
	out := entities.SERPResults{
		Keyword:         req.Keyword,
		TotalResults:    int64(10000 + hash(req.Keyword)%900000),
		FeaturedSnippet: fmt.Sprintf("%s is a widely searched topic with an active secondary market.", display),
	}
	for i, p := range serpPatterns {
		out.Organic = append(out.Organic, entities.SERPResult{
			Position: i + 1,
			Title:    fmt.Sprintf(p, display),
			URL:      fmt.Sprintf("https://example.com/%s/%d", slug, i+1),
			Snippet:  fmt.Sprintf("Result %d about %s.", i+1, req.Keyword),
		})
	}
	return providers.OK(out, meta(providers.EndpointSERPResults))
}

// PAA serves paa_questions
type PAA struct{}

var paaPatterns = []string{
	"What is %s?",
	"How much is %s worth?",
	"Is %s a good investment?",
	"How can you tell if %s is authentic?",
	"Where is the best place to buy %s?",
}

// PAAQuestions returns templated questions about the keyword
func (PAA) PAAQuestions(ctx context.Context, req providers.SERPRequest) providers.Result[entities.PAAQuestions] {
	kw := strings.ToLower(req.Keyword)
	out := entities.PAAQuestions{Keyword: req.Keyword}
	for _, p := range paaPatterns {
		out.Questions = append(out.Questions, entities.PAAQuestion{Question: fmt.Sprintf(p, kw)})
	}
	return providers.OK(out, meta(providers.EndpointPAAQuestions))
}
