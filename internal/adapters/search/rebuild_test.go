package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/articleforge/internal/adapters/storage"
	"github.com/zatekoja/articleforge/internal/domain/entities"
)

type MockArticleIndex struct {
	mock.Mock
}

func (m *MockArticleIndex) Upsert(ctx context.Context, article *entities.ArticleRecord, path string) error {
	args := m.Called(ctx, article, path)
	return args.Error(0)
}

func (m *MockArticleIndex) Delete(ctx context.Context, slug string) error {
	args := m.Called(ctx, slug)
	return args.Error(0)
}

func TestRebuild(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)

	lamps := sampleArticle()
	require.NoError(t, storage.PutJSON(ctx, store, entities.OptimizedPath(lamps.Slug), lamps, entities.ArtifactMeta{}))
	require.NoError(t, store.Put(ctx, entities.ArticlePath(lamps.Slug), []byte("---\n---\n"), entities.ArtifactMeta{MediaType: entities.MediaTypeMarkdown}))

	clocks := &entities.ArticleRecord{Term: "vintage clocks", Title: "Vintage Clocks"}
	require.NoError(t, storage.PutJSON(ctx, store, entities.OptimizedPath("vintage-clocks"), clocks, entities.ArtifactMeta{}))

	// research and plan artifacts are not articles
	require.NoError(t, storage.PutJSON(ctx, store, entities.PlanPath(lamps.Slug), map[string]string{"x": "y"}, entities.ArtifactMeta{}))

	index := new(MockArticleIndex)
	index.On("Upsert", mock.Anything, mock.MatchedBy(func(a *entities.ArticleRecord) bool {
		return a.Slug == "antique-lamps"
	}), "antique-lamps/article.md").Return(nil)
	index.On("Upsert", mock.Anything, mock.MatchedBy(func(a *entities.ArticleRecord) bool {
		return a.Slug == "vintage-clocks"
	}), "").Return(errors.New("index unavailable"))

	stats, err := Rebuild(ctx, store, index)
	require.NoError(t, err)

	assert.Equal(t, RebuildStats{Indexed: 1, Failed: 1}, stats)
	index.AssertExpectations(t)
}

func TestRebuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, storage.PutJSON(context.Background(), store, entities.OptimizedPath("a"), sampleArticle(), entities.ArtifactMeta{}))
	cancel()

	_, err = Rebuild(ctx, store, new(MockArticleIndex))
	assert.ErrorIs(t, err, context.Canceled)
}
