package providers

import (
	"context"

	"github.com/zatekoja/articleforge/internal/domain/entities"
)

// Endpoint names
const (
	EndpointKeywordMetrics  = "keyword_metrics"
	EndpointRelatedKeywords = "related_keywords"
	EndpointSERPResults     = "serp_results"
	EndpointPAAQuestions    = "paa_questions"
	EndpointTopicExpansion  = "topic_expansion"
	EndpointPlanArticle     = "plan_article"
	EndpointWriteSections   = "write_sections"
	EndpointSEOPass         = "seo_pass"
	EndpointGenerateImage   = "generate_image"
	EndpointValueRange      = "value_range"
	EndpointPublish         = "cms_publish"
)

// KeywordRequest addresses the keyword research endpoints. Slug doubles as the idempotency token.
type KeywordRequest struct {
	Slug     string
	Keyword  string
	Locale   string
	MaxItems int
}

// SERPRequest addresses the SERP and PAA endpoints
type SERPRequest struct {
	Slug    string
	Keyword string
	Locale  string
	Depth   int
}

// ExpansionRequest is one topic_expansion sub-call
type ExpansionRequest struct {
	Slug   string
	Term   string
	Aspect string
	SERP   *entities.SERPResults
}

// PlanRequest asks the analytical model for an outline
type PlanRequest struct {
	Slug    string
	Term    string
	Bundle  *entities.ResearchBundle
	Tighten bool
}

// PlanResponse is the plan_article payload
type PlanResponse struct {
	Plan           entities.ArticlePlan `json:"plan"`
	ValuationBlurb string               `json:"valuation_blurb"`
}

// Section kinds for write_sections
const (
	SectionKindIntro   = "intro"
	SectionKindSection = "section"
	SectionKindFAQ     = "faq"
)

// WriteRequest asks the generative model to expand one outline entry
type WriteRequest struct {
	Slug           string
	Term           string
	Kind           string
	Heading        string
	KeyPoints      []string
	Subsections    []string
	Questions      []string
	PrimaryKeyword string
	MinWords       int
	MaxWords       int
	Valuation      *entities.ValuationRange
	// Expand asks for a longer rewrite after a body came back too short
	Expand bool
}

// WrittenSection is the write_sections payload
type WrittenSection struct {
	Heading     string                       `json:"heading"`
	Body        string                       `json:"body"`
	Subsections []entities.ArticleSubsection `json:"subsections,omitempty"`
	FAQ         []entities.FAQEntry          `json:"faq,omitempty"`
}

// SEORequest asks the generative model for the refinement pass
type SEORequest struct {
	Slug              string
	Article           entities.ArticleRecord
	PrimaryKeyword    string
	SecondaryKeywords []string
	DensityMin        float64
	DensityMax        float64
	LinkCandidates    []entities.InternalLink
}

// ImageRequest asks for a featured image
type ImageRequest struct {
	Slug   string
	Term   string
	Prompt string
	Size   string
}

// ValuationRequest maps a ten-word description to a price range
type ValuationRequest struct {
	Slug        string
	Description string
}

// PublishRequest pushes a rendered article to a content-management target
type PublishRequest struct {
	Slug     string
	Title    string
	Excerpt  string
	Markdown string
	Tags     []string
	Status   string
}

// PublishReceipt identifies the published post
type PublishReceipt struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// KeywordProvider serves keyword_metrics and related_keywords
type KeywordProvider interface {
	KeywordMetrics(ctx context.Context, req KeywordRequest) Result[entities.KeywordMetrics]
	RelatedKeywords(ctx context.Context, req KeywordRequest) Result[entities.RelatedKeywords]
}

// SERPProvider serves serp_results
type SERPProvider interface {
	SERPResults(ctx context.Context, req SERPRequest) Result[entities.SERPResults]
}

// PAAProvider serves paa_questions
type PAAProvider interface {
	PAAQuestions(ctx context.Context, req SERPRequest) Result[entities.PAAQuestions]
}

// AnalyticalModel serves topic_expansion and plan_article
type AnalyticalModel interface {
	TopicExpansion(ctx context.Context, req ExpansionRequest) Result[entities.ExpansionPart]
	PlanArticle(ctx context.Context, req PlanRequest) Result[PlanResponse]
}

// GenerativeModel serves write_sections and seo_pass
type GenerativeModel interface {
	WriteSections(ctx context.Context, req WriteRequest) Result[WrittenSection]
	SEOPass(ctx context.Context, req SEORequest) Result[entities.ArticleRecord]
}

// ImageProvider serves generate_image
type ImageProvider interface {
	GenerateImage(ctx context.Context, req ImageRequest) Result[entities.ImageRef]
}

// ValuationProvider serves value_range
type ValuationProvider interface {
	ValueRange(ctx context.Context, req ValuationRequest) Result[entities.ValuationRange]
}

// Publisher serves the optional content-management target
type Publisher interface {
	Publish(ctx context.Context, req PublishRequest) Result[PublishReceipt]
}

// Adapters bundles one adapter per endpoint family. Publisher may be nil.
type Adapters struct {
	Keywords   KeywordProvider
	SERP       SERPProvider
	PAA        PAAProvider
	Analytical AnalyticalModel
	Generative GenerativeModel
	Images     ImageProvider
	Valuation  ValuationProvider
	Publisher  Publisher
}
