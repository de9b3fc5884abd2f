package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/infrastructure/clients/httpclient"
)

var _ providers.GenerativeModel = (*GenerativeAdapter)(nil)

// GenerativeAdapter serves write_sections and seo_pass
type GenerativeAdapter struct {
	model Completer
}

// NewGenerativeAdapter wraps a completer
func NewGenerativeAdapter(model Completer) *GenerativeAdapter {
	return &GenerativeAdapter{model: model}
}

// WriteSections expands one outline entry into prose
func (a *GenerativeAdapter) WriteSections(ctx context.Context, req providers.WriteRequest) providers.Result[providers.WrittenSection] {
	maxTokens := req.MaxWords * 3
	if maxTokens < 1200 {
		maxTokens = 1200
	}
	text, perr := a.model.Complete(ctx, writeSystemPrompt, buildWritePrompt(req), maxTokens)
	if perr != nil {
		return providers.Fail[providers.WrittenSection](perr)
	}

	var section providers.WrittenSection
	if err := json.Unmarshal([]byte(text), &section); err != nil {
		return providers.Fail[providers.WrittenSection](httpclient.SchemaError("invalid section payload: %v", err))
	}
	section.Body = strings.TrimSpace(section.Body)
	if req.Kind == providers.SectionKindFAQ {
		if len(section.FAQ) == 0 {
			return providers.Fail[providers.WrittenSection](httpclient.SchemaError("faq payload has no answers"))
		}
	} else if section.Body == "" {
		return providers.Fail[providers.WrittenSection](httpclient.SchemaError("section %q has an empty body", req.Heading))
	}
	if section.Heading == "" {
		section.Heading = req.Heading
	}
	return providers.OK(section, a.meta(providers.EndpointWriteSections))
}

// SEOPass rewrites the article for keyword placement. The returned record keeps the
// fields the model is not allowed to change.
func (a *GenerativeAdapter) SEOPass(ctx context.Context, req providers.SEORequest) providers.Result[entities.ArticleRecord] {
	prompt, err := buildSEOPrompt(req)
	if err != nil {
		return providers.Fail[entities.ArticleRecord](httpclient.SchemaError("failed to encode article: %v", err))
	}

	text, perr := a.model.Complete(ctx, seoSystemPrompt, prompt, 8000)
	if perr != nil {
		return providers.Fail[entities.ArticleRecord](perr)
	}

	var revised entities.ArticleRecord
	if err := json.Unmarshal([]byte(text), &revised); err != nil {
		return providers.Fail[entities.ArticleRecord](httpclient.SchemaError("invalid seo payload: %v", err))
	}
	if len(revised.Sections) != len(req.Article.Sections) {
		return providers.Fail[entities.ArticleRecord](httpclient.SchemaError(
			"seo pass returned %d sections, expected %d", len(revised.Sections), len(req.Article.Sections)))
	}

	revised.Term = req.Article.Term
	revised.Slug = req.Article.Slug
	revised.Images = req.Article.Images
	revised.Valuation = req.Article.Valuation
	revised.Provenance = req.Article.Provenance
	revised.RelatedTerms = req.Article.RelatedTerms
	if revised.Title == "" {
		revised.Title = req.Article.Title
	}
	if revised.Categories == nil {
		revised.Categories = req.Article.Categories
	}
	if revised.Tags == nil {
		revised.Tags = req.Article.Tags
	}
	revised.InternalLinks = allowedLinks(revised.InternalLinks, req.LinkCandidates)
	return providers.OK(revised, a.meta(providers.EndpointSEOPass))
}

func allowedLinks(links, candidates []entities.InternalLink) []entities.InternalLink {
	allowed := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		allowed[c.Slug] = true
	}
	var out []entities.InternalLink
	for _, l := range links {
		if allowed[l.Slug] && strings.TrimSpace(l.Anchor) != "" {
			out = append(out, l)
		}
	}
	return out
}

func (a *GenerativeAdapter) meta(endpoint string) providers.ResultMeta {
	return providers.ResultMeta{Endpoint: endpoint, Provider: a.model.Provider()}
}
