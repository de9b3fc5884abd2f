package services

import (
	"context"
	"sort"
	"strings"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/pkg/utils"
)

// ListArticles returns the slugs that have a rendered article.md, sorted
func ListArticles(ctx context.Context, store providers.ArtifactStore) ([]string, error) {
	paths, err := store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	var slugs []string
	for _, p := range paths {
		slug, rest, ok := strings.Cut(p, "/")
		if !ok || rest != "article.md" {
			continue
		}
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs, nil
}

// ListRuns returns the slugs that have a run checkpoint, sorted
func ListRuns(ctx context.Context, store providers.ArtifactStore) ([]string, error) {
	paths, err := store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	var slugs []string
	for _, p := range paths {
		if slug, rest, ok := strings.Cut(p, "/"); ok && rest == "run.json" {
			slugs = append(slugs, slug)
		}
	}
	sort.Strings(slugs)
	return slugs, nil
}

// anchorFor turns a slug into link text
func anchorFor(slug string) string {
	return utils.TitleCase(strings.ReplaceAll(slug, "-", " "))
}

// linkCandidates lists rendered articles other than self as internal link targets
func linkCandidates(ctx context.Context, store providers.ArtifactStore, self string, limit int) []entities.InternalLink {
	slugs, err := ListArticles(ctx, store)
	if err != nil {
		return nil
	}
	var out []entities.InternalLink
	for _, slug := range slugs {
		if slug == self {
			continue
		}
		out = append(out, entities.InternalLink{Anchor: anchorFor(slug), Slug: slug})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
