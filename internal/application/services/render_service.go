package services

import (
	"context"
	"fmt"
	"time"

	"github.com/zatekoja/articleforge/internal/adapters/storage"
	"github.com/zatekoja/articleforge/internal/application/render"
	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
)

// RenderService writes <slug>/article.md from the optimized article
type RenderService struct {
	deps  Deps
	draft bool
}

// NewRenderService creates a new render stage
func NewRenderService(deps Deps, draft bool) *RenderService {
	return &RenderService{deps: deps, draft: draft}
}

// Render composes the document. date comes from the run, lastmod from the newest contributing artifact.
func (s *RenderService) Render(ctx context.Context, run *entities.WorkflowRun) (string, error) {
	ctx, span := observability.StartSpan(ctx, "services.render.render")
	defer span.End()
	slug := run.Term.Slug

	var article entities.ArticleRecord
	optimized, err := storage.GetJSON(ctx, s.deps.Store, entities.OptimizedPath(slug), &article)
	if err != nil {
		return "", fmt.Errorf("render needs the optimized article for %s: %w", slug, err)
	}

	lastmod := optimized.Meta.CreatedAt
	for _, p := range []string{entities.EnhancedPath(slug), entities.PlanPath(slug), entities.ValuationPath(slug)} {
		if t := s.createdAt(ctx, p); t.After(lastmod) {
			lastmod = t
		}
	}

	doc := render.Document(article, render.Options{Date: run.CreatedAt, LastMod: lastmod, Draft: s.draft})
	header, _, err := render.ParseFrontMatter([]byte(doc))
	if err == nil {
		err = header.Validate()
	}
	if err != nil {
		return "", apperrors.NewInternalError("rendered front matter does not parse", err)
	}

	path := entities.ArticlePath(slug)
	meta := entities.ArtifactMeta{
		Term:       run.Term.Raw,
		Type:       "article",
		Provider:   optimized.Meta.Provider,
		Mock:       optimized.Meta.Mock,
		TimeFields: []string{"date", "lastmod"},
	}
	if err := storage.PutText(ctx, s.deps.Store, path, doc, entities.MediaTypeMarkdown, meta); err != nil {
		return "", fmt.Errorf("failed to store article for %s: %w", slug, err)
	}
	return path, nil
}

func (s *RenderService) createdAt(ctx context.Context, path string) time.Time {
	if !s.deps.Store.Exists(ctx, path) {
		return time.Time{}
	}
	artifact, err := s.deps.Store.Get(ctx, path)
	if err != nil {
		return time.Time{}
	}
	return artifact.Meta.CreatedAt
}
