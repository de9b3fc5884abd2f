package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/infrastructure/clients/httpclient"
	"github.com/zatekoja/articleforge/pkg/utils"
)

// Completer is a chat-style model client
type Completer interface {
	Provider() string
	Complete(ctx context.Context, system, user string, maxTokens int) (string, *providers.ProviderError)
}

var _ providers.AnalyticalModel = (*AnalyticalAdapter)(nil)

// AnalyticalAdapter serves topic_expansion and plan_article
type AnalyticalAdapter struct {
	model Completer
}

// NewAnalyticalAdapter wraps a completer
func NewAnalyticalAdapter(model Completer) *AnalyticalAdapter {
	return &AnalyticalAdapter{model: model}
}

type expansionPayload struct {
	Items   []string `json:"items"`
	Summary string   `json:"summary"`
}

// TopicExpansion runs one expansion aspect
func (a *AnalyticalAdapter) TopicExpansion(ctx context.Context, req providers.ExpansionRequest) providers.Result[entities.ExpansionPart] {
	if _, ok := aspectInstructions[req.Aspect]; !ok {
		return providers.Fail[entities.ExpansionPart](httpclient.SchemaError("unknown expansion aspect %q", req.Aspect))
	}

	text, perr := a.model.Complete(ctx, expansionSystemPrompt, buildExpansionPrompt(req), 800)
	if perr != nil {
		return providers.Fail[entities.ExpansionPart](perr)
	}

	var payload expansionPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return providers.Fail[entities.ExpansionPart](httpclient.SchemaError("invalid expansion payload: %v", err))
	}
	part := entities.ExpansionPart{
		Aspect:  req.Aspect,
		Items:   cleanList(payload.Items),
		Summary: strings.TrimSpace(payload.Summary),
	}
	if len(part.Items) == 0 && part.Summary == "" {
		return providers.Fail[entities.ExpansionPart](httpclient.SchemaError("empty expansion for %s", req.Aspect))
	}
	return providers.OK(part, a.meta(providers.EndpointTopicExpansion))
}

type planPayload struct {
	Title            string   `json:"title"`
	PrimaryIntent    string   `json:"primary_intent"`
	SecondaryIntents []string `json:"secondary_intents"`
	Audience         []string `json:"audience"`
	Sections         []struct {
		Title       string   `json:"title"`
		KeyPoints   []string `json:"key_points"`
		Subsections []string `json:"subsections"`
	} `json:"sections"`
	FAQ []string `json:"faq"`
	SEO struct {
		PrimaryKeyword    string   `json:"primary_keyword"`
		SecondaryKeywords []string `json:"secondary_keywords"`
		SnippetForm       string   `json:"snippet_form"`
		MetaDescription   string   `json:"meta_description"`
	} `json:"seo"`
	Categories     []string `json:"categories"`
	Tags           []string `json:"tags"`
	ValuationBlurb string   `json:"valuation_blurb"`
}

// PlanArticle asks for an outline and validates it against the closed vocabularies
func (a *AnalyticalAdapter) PlanArticle(ctx context.Context, req providers.PlanRequest) providers.Result[providers.PlanResponse] {
	text, perr := a.model.Complete(ctx, planSystemPrompt, buildPlanPrompt(req), 3000)
	if perr != nil {
		return providers.Fail[providers.PlanResponse](perr)
	}

	resp, perr := ParsePlan([]byte(text), req)
	if perr != nil {
		return providers.Fail[providers.PlanResponse](perr)
	}
	return providers.OK(*resp, a.meta(providers.EndpointPlanArticle))
}

// ParsePlan decodes a plan_article payload. Unknown intents or snippet forms are schema errors.
func ParsePlan(data []byte, req providers.PlanRequest) (*providers.PlanResponse, *providers.ProviderError) {
	var payload planPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, httpclient.SchemaError("invalid plan payload: %v", err)
	}
	if strings.TrimSpace(payload.Title) == "" {
		return nil, httpclient.SchemaError("plan has no title")
	}
	if len(payload.Sections) == 0 {
		return nil, httpclient.SchemaError("plan has no sections")
	}

	primary, ok := entities.ParseIntent(payload.PrimaryIntent)
	if !ok {
		return nil, httpclient.SchemaError("unknown primary intent %q", payload.PrimaryIntent)
	}
	var secondary []entities.Intent
	for _, raw := range payload.SecondaryIntents {
		intent, ok := entities.ParseIntent(raw)
		if !ok {
			return nil, httpclient.SchemaError("unknown secondary intent %q", raw)
		}
		if intent != primary {
			secondary = append(secondary, intent)
		}
	}
	snippet := entities.SnippetParagraph
	if payload.SEO.SnippetForm != "" {
		form, ok := entities.ParseSnippetForm(payload.SEO.SnippetForm)
		if !ok {
			return nil, httpclient.SchemaError("unknown snippet form %q", payload.SEO.SnippetForm)
		}
		snippet = form
	}

	plan := entities.ArticlePlan{
		Term:             req.Term,
		Slug:             req.Slug,
		Title:            strings.TrimSpace(payload.Title),
		PrimaryIntent:    primary,
		SecondaryIntents: secondary,
		Audience:         cleanList(payload.Audience),
		FAQ:              cleanList(payload.FAQ),
		SEO: entities.SEOMetadata{
			PrimaryKeyword:    strings.TrimSpace(payload.SEO.PrimaryKeyword),
			SecondaryKeywords: cleanList(payload.SEO.SecondaryKeywords),
			SnippetForm:       snippet,
			MetaDescription:   strings.TrimSpace(payload.SEO.MetaDescription),
		},
		Categories: cleanList(payload.Categories),
		Tags:       cleanList(payload.Tags),
	}
	if plan.SEO.PrimaryKeyword == "" {
		plan.SEO.PrimaryKeyword = strings.ToLower(req.Term)
	}
	for _, s := range payload.Sections {
		title := strings.TrimSpace(s.Title)
		if title == "" {
			continue
		}
		plan.Sections = append(plan.Sections, entities.PlanSection{
			Title:       title,
			KeyPoints:   cleanList(s.KeyPoints),
			Subsections: cleanList(s.Subsections),
		})
	}
	if len(plan.Sections) == 0 {
		return nil, httpclient.SchemaError("plan sections have no titles")
	}
	if req.Bundle != nil {
		plan.RelatedTerms = req.Bundle.RelatedTerms(10)
	}

	return &providers.PlanResponse{
		Plan:           plan,
		ValuationBlurb: utils.NormalizeWhitespace(payload.ValuationBlurb),
	}, nil
}

func (a *AnalyticalAdapter) meta(endpoint string) providers.ResultMeta {
	return providers.ResultMeta{Endpoint: endpoint, Provider: a.model.Provider()}
}

func cleanList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	return utils.UniqueStrings(in)
}
