package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	tsclient "github.com/zatekoja/articleforge/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
	"github.com/zatekoja/articleforge/pkg/utils"
)

// TypesenseAdapter keeps rendered articles searchable in Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
	now    func() int64
}

// Ensure TypesenseAdapter implements ArticleIndex
var _ providers.ArticleIndex = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client, now func() int64) *TypesenseAdapter {
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	return &TypesenseAdapter{client: client, now: now}
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	name := a.client.Collection()
	if _, err := a.client.Client().Collection(name).Retrieve(ctx); err == nil {
		return nil
	}

	schema := &api.CollectionSchema{
		Name: name,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "title", Type: "string"},
			{Name: "description", Type: "string"},
			{Name: "term", Type: "string"},
			{Name: "path", Type: "string", Optional: pointer.True()},
			{Name: "body", Type: "string"},
			{Name: "keywords", Type: "string[]", Optional: pointer.True()},
			{Name: "categories", Type: "string[]", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "tags", Type: "string[]", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "concepts", Type: "string[]", Optional: pointer.True()},
			{Name: "headings", Type: "string[]", Optional: pointer.True()},
			{Name: "questions", Type: "string[]", Optional: pointer.True()},
			{Name: "word_count", Type: "int32"},
			{Name: "indexed_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("indexed_at"),
	}

	if _, err := a.client.Client().Collections().Create(ctx, schema); err != nil {
		return fmt.Errorf("failed to create typesense collection %s: %w", name, err)
	}
	return nil
}

// Upsert indexes article under its slug
func (a *TypesenseAdapter) Upsert(ctx context.Context, article *entities.ArticleRecord, path string) error {
	document := buildDocument(article, path)
	document["indexed_at"] = a.now()

	if _, err := a.client.Client().Collection(a.client.Collection()).Documents().Upsert(ctx, document); err != nil {
		return fmt.Errorf("failed to index article %s: %w", article.Slug, err)
	}
	return nil
}

// Reset drops the collection and recreates it empty
func (a *TypesenseAdapter) Reset(ctx context.Context) error {
	name := a.client.Collection()
	if _, err := a.client.Client().Collection(name).Delete(ctx); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("collection", name).Msg("failed to delete collection")
	}
	return a.InitSchema(ctx)
}

// Delete removes an article from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, slug string) error {
	if _, err := a.client.Client().Collection(a.client.Collection()).Document(slug).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete article %s from index: %w", slug, err)
	}
	return nil
}

func buildDocument(article *entities.ArticleRecord, path string) map[string]interface{} {
	body := article.BodyText()
	concepts := BuildConceptFields(article)
	return map[string]interface{}{
		"id":          article.Slug,
		"title":       article.Title,
		"description": article.MetaDescription,
		"term":        article.Term,
		"path":        path,
		"body":        body,
		"keywords":    nonNil(utils.UniqueStrings(article.Keywords)),
		"categories":  nonNil(article.Categories),
		"tags":        nonNil(lowerAll(article.Tags)),
		"concepts":    concepts.Concepts,
		"headings":    concepts.Headings,
		"questions":   concepts.Questions,
		"word_count":  utils.WordCount(body),
	}
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range utils.UniqueStrings(values) {
		out = append(out, strings.ToLower(v))
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
