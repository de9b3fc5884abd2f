package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/zatekoja/articleforge/internal/adapters/storage"
	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
)

// RebuildStats counts the outcome of one re-index pass
type RebuildStats struct {
	Indexed int
	Failed  int
}

// Rebuild upserts every <slug>/optimized.json in store into index. Articles
// that fail to load or index are logged and counted, not fatal.
func Rebuild(ctx context.Context, store providers.ArtifactStore, index providers.ArticleIndex) (RebuildStats, error) {
	var stats RebuildStats
	logger := observability.LoggerFromContext(ctx)

	paths, err := store.List(ctx, "")
	if err != nil {
		return stats, fmt.Errorf("failed to list artifacts: %w", err)
	}

	for _, p := range paths {
		slug, rest, ok := strings.Cut(p, "/")
		if !ok || p != entities.OptimizedPath(slug) || rest == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		var article entities.ArticleRecord
		if _, err := storage.GetJSON(ctx, store, p, &article); err != nil {
			logger.Warn().Err(err).Str("slug", slug).Msg("skipping unreadable article")
			stats.Failed++
			continue
		}
		if article.Slug == "" {
			article.Slug = slug
		}

		path := ""
		if store.Exists(ctx, entities.ArticlePath(slug)) {
			path = entities.ArticlePath(slug)
		}
		if err := index.Upsert(ctx, &article, path); err != nil {
			logger.Warn().Err(err).Str("slug", slug).Msg("failed to index article")
			stats.Failed++
			continue
		}
		stats.Indexed++
	}

	return stats, nil
}
