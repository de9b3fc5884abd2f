package providers

import (
	"context"

	"github.com/zatekoja/articleforge/internal/domain/entities"
)

// ArticleIndex keeps a search index of finished articles
type ArticleIndex interface {
	Upsert(ctx context.Context, article *entities.ArticleRecord, path string) error
	Delete(ctx context.Context, slug string) error
}
