package policy

import "github.com/zatekoja/articleforge/internal/domain/providers"

// Endpoint names a provider endpoint and whether its stage cannot proceed without it
type Endpoint struct {
	Name      string
	Mandatory bool
}

// Registered endpoints
var (
	KeywordMetrics  = Endpoint{Name: providers.EndpointKeywordMetrics, Mandatory: true}
	RelatedKeywords = Endpoint{Name: providers.EndpointRelatedKeywords}
	SERPResults     = Endpoint{Name: providers.EndpointSERPResults}
	PAAQuestions    = Endpoint{Name: providers.EndpointPAAQuestions}
	TopicExpansion  = Endpoint{Name: providers.EndpointTopicExpansion}
	PlanArticle     = Endpoint{Name: providers.EndpointPlanArticle, Mandatory: true}
	WriteSections   = Endpoint{Name: providers.EndpointWriteSections, Mandatory: true}
	SEOPass         = Endpoint{Name: providers.EndpointSEOPass, Mandatory: true}
	GenerateImage   = Endpoint{Name: providers.EndpointGenerateImage}
	ValueRange      = Endpoint{Name: providers.EndpointValueRange}
	Publish         = Endpoint{Name: providers.EndpointPublish}
)

// Endpoints lists every registered endpoint
var Endpoints = []Endpoint{
	KeywordMetrics, RelatedKeywords, SERPResults, PAAQuestions, TopicExpansion,
	PlanArticle, WriteSections, SEOPass, GenerateImage, ValueRange, Publish,
}
