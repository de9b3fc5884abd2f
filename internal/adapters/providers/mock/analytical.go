package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/pkg/utils"
)

// Analytical serves topic_expansion and plan_article
type Analytical struct{}

// TopicExpansion returns one aspect of a templated expansion
func (Analytical) TopicExpansion(ctx context.Context, req providers.ExpansionRequest) providers.Result[entities.ExpansionPart] {
	kw := strings.ToLower(req.Term)
	part := entities.ExpansionPart{Aspect: req.Aspect}
	switch req.Aspect {
	case entities.AspectVariations:
		part.Items = []string{kw + " models", kw + " editions", "vintage " + kw, "new " + kw}
	case entities.AspectIntent:
		part.Items = []string{string(entities.IntentInformational), string(entities.IntentCommercial)}
	case entities.AspectTopics:
		part.Items = []string{"history", "features", "pricing", "buying advice", "care"}
		for _, title := range req.SERP.Titles() {
			if strings.Contains(strings.ToLower(title), "authentic") || strings.Contains(strings.ToLower(title), "genuine") {
				part.Items = append(part.Items, "authenticity")
				break
			}
		}
	case entities.AspectContext:
		part.Summary = fmt.Sprintf("%s attracts both enthusiasts and first-time buyers, and its value depends on condition, provenance and demand.", utils.TitleCase(req.Term))
	case entities.AspectComplement:
		part.Items = []string{kw + " accessories", kw + " insurance", kw + " servicing"}
	default:
		return providers.Fail[entities.ExpansionPart](providers.NewProviderError(providers.ErrSchema, "unknown aspect "+req.Aspect))
	}
	return providers.OK(part, meta(providers.EndpointTopicExpansion))
}

var sectionPatterns = []struct {
	title       string
	points      []string
	subsections []string
}{
	{"What Is %s?", []string{"definition", "who it is for"}, nil},
	{"History and Background of %s", []string{"origins", "notable milestones"}, nil},
	{"Key Features of %s", []string{"design", "build quality", "performance"}, []string{"Design", "Performance"}},
	{"How to Choose the Right %s", []string{"budget", "condition", "authenticity checks"}, nil},
	{"%s Prices and Value", []string{"price drivers", "market trends"}, nil},
	{"Caring for Your %s", []string{"maintenance", "storage", "servicing"}, nil},
}

var blurbFiller = []string{"collectible", "item", "valued", "by", "condition", "rarity", "and", "current", "market", "demand"}

// Blurb returns exactly ten words describing the term
func Blurb(term string) string {
	words := strings.Fields(strings.ToLower(term))
	if len(words) > 10 {
		words = words[:10]
	}
	words = append(words, blurbFiller[:10-len(words)]...)
	return strings.Join(words, " ")
}

// PlanArticle returns a six-section outline and a ten-word blurb
func (Analytical) PlanArticle(ctx context.Context, req providers.PlanRequest) providers.Result[providers.PlanResponse] {
	display := utils.TitleCase(req.Term)
	kw := strings.ToLower(utils.NormalizeWhitespace(req.Term))

	plan := entities.ArticlePlan{
		Term:             req.Term,
		Slug:             req.Slug,
		Title:            fmt.Sprintf("%s: Complete Guide to Features, Value and Buying Tips", display),
		PrimaryIntent:    entities.IntentInformational,
		SecondaryIntents: []entities.Intent{entities.IntentCommercial},
		Audience:         []string{"enthusiasts", "first-time buyers"},
		SEO: entities.SEOMetadata{
			PrimaryKeyword:  kw,
			SnippetForm:     entities.SnippetParagraph,
			MetaDescription: fmt.Sprintf("Everything you need to know about %s: history, features, prices and buying advice.", kw),
		},
		Categories: []string{"Guides"},
		Tags:       []string{kw, "buying guide", "valuation"},
	}
	for _, p := range sectionPatterns {
		plan.Sections = append(plan.Sections, entities.PlanSection{
			Title:       fmt.Sprintf(p.title, display),
			KeyPoints:   p.points,
			Subsections: p.subsections,
		})
	}

	if req.Bundle != nil {
		plan.FAQ = req.Bundle.Questions()
		plan.RelatedTerms = req.Bundle.RelatedTerms(8)
		if req.Bundle.Related != nil {
			for i, item := range req.Bundle.Related.Items {
				if i == 4 {
					break
				}
				plan.SEO.SecondaryKeywords = append(plan.SEO.SecondaryKeywords, item.Keyword)
			}
		}
	}
	if len(plan.FAQ) == 0 {
		for _, p := range paaPatterns[:4] {
			plan.FAQ = append(plan.FAQ, fmt.Sprintf(p, kw))
		}
	}
	if len(plan.FAQ) > 6 {
		plan.FAQ = plan.FAQ[:6]
	}

	return providers.OK(providers.PlanResponse{Plan: plan, ValuationBlurb: Blurb(req.Term)}, meta(providers.EndpointPlanArticle))
}
