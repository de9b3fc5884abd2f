package evaluation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/articleforge/internal/adapters/storage"
	"github.com/zatekoja/articleforge/internal/application/render"
	"github.com/zatekoja/articleforge/internal/domain/entities"
)

func seedArticle(t *testing.T, store *storage.FSStore) entities.ArticleRecord {
	t.Helper()
	ctx := context.Background()
	article := entities.ArticleRecord{
		Term:            "antique lamps",
		Slug:            "antique-lamps",
		Title:           "Antique Lamps Guide",
		MetaDescription: "What antique lamps are worth.",
		Introduction:    "Brass lamps and oil lamps fill many attics.",
		Sections: []entities.ArticleSection{
			{Heading: "History", Body: "Oil lamps came first."},
			{
				Heading:     "Antique Lamps Today",
				Body:        "Collectors still prize antique lamps.",
				Subsections: []entities.ArticleSubsection{{Heading: "Makers", Body: "Workshops in Birmingham."}},
			},
		},
		FAQ: []entities.FAQEntry{
			{Question: "How much is an antique lamp worth?", Answer: "It depends on condition."},
		},
	}
	meta := entities.ArtifactMeta{Term: article.Term}
	require.NoError(t, storage.PutJSON(ctx, store, entities.OptimizedPath(article.Slug), article, meta))

	doc := render.Document(article, render.Options{Date: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, store.Put(ctx, entities.ArticlePath(article.Slug), []byte(doc),
		entities.ArtifactMeta{MediaType: entities.MediaTypeMarkdown}))

	related := entities.RelatedKeywords{Keyword: article.Term, Items: []entities.RelatedKeyword{
		{Keyword: "brass lamps"}, {Keyword: "Oil Lamps"}, {Keyword: "tiffany"},
	}}
	require.NoError(t, storage.PutJSON(ctx, store, entities.ResearchPath(article.Slug, entities.ResearchRelated), related, meta))

	paa := entities.PAAQuestions{Keyword: article.Term, Questions: []entities.PAAQuestion{
		{Question: "How much is an antique lamp worth?"}, {Question: "Who made oil lamps?"},
	}}
	require.NoError(t, storage.PutJSON(ctx, store, entities.ResearchPath(article.Slug, entities.ResearchPAA), paa, meta))
	return article
}

func newStore(t *testing.T) *storage.FSStore {
	t.Helper()
	store, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestRunner_AuditsStoredArticle(t *testing.T) {
	store := newStore(t)
	seedArticle(t, store)
	runner := NewRunner(store, NewGuardrails(GuardrailConfig{MinWords: 5, MinFAQ: 1}))

	summary, err := runner.Run(context.Background(), []string{"antique-lamps"}, nil)
	require.NoError(t, err)
	require.Len(t, summary.Results, 1)

	res := summary.Results[0]
	assert.Equal(t, "antique lamps", res.Term)
	assert.Equal(t, 2, res.SectionCount)
	assert.Equal(t, 3, res.HeadingCount)
	assert.Equal(t, 1, res.FAQCount)
	assert.Positive(t, res.WordCount)
	assert.InDelta(t, 2.0/3.0, res.RelatedCoverage, floatTolerance)
	assert.InDelta(t, 0.5, res.FAQCoverage, floatTolerance)
	assert.InDelta(t, 0.5, res.HeadingMRR, floatTolerance, "the term first appears in the second heading")
	assert.NotContains(t, codes(res.Findings), CodeFrontMatter)
	assert.NotContains(t, codes(res.Findings), CodeResearchMissing)
}

func TestRunner_ExpectationsAndMissingArticles(t *testing.T) {
	store := newStore(t)
	seedArticle(t, store)
	runner := NewRunner(store, NewGuardrails(GuardrailConfig{MinWords: 5, MinFAQ: 1}))

	expect := IndexExpectations([]Expectation{{Slug: "antique-lamps", MustMention: []string{"tiffany"}}})
	summary, err := runner.Run(context.Background(), []string{"antique-lamps", "vintage-clocks"}, expect)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 0, summary.Passed)
	assert.Equal(t, 1, summary.ByFinding[CodeMissingMention])
	assert.Equal(t, 1, summary.ByFinding[CodeMissingArticle])
	assert.Equal(t, []string{CodeMissingArticle}, codes(summary.Results[1].Findings))
}

func TestRunner_DefaultsToEveryRenderedArticle(t *testing.T) {
	store := newStore(t)
	seedArticle(t, store)
	require.NoError(t, storage.PutJSON(context.Background(), store, entities.OptimizedPath("draft-only"),
		entities.ArticleRecord{Term: "draft only", Slug: "draft-only"}, entities.ArtifactMeta{}))

	summary, err := NewRunner(store, nil).Run(context.Background(), nil, nil)
	require.NoError(t, err)

	require.Len(t, summary.Results, 1)
	assert.Equal(t, "antique-lamps", summary.Results[0].Slug)
}

func TestRunner_FlagsMissingResearch(t *testing.T) {
	store := newStore(t)
	article := seedArticle(t, store)
	require.NoError(t, store.Purge(context.Background(), article.Slug+"/research"))

	summary, err := NewRunner(store, nil).Run(context.Background(), []string{article.Slug}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.ByFinding[CodeResearchMissing])
	assert.Zero(t, summary.Results[0].RelatedCoverage)
}

func TestRunner_Cancelled(t *testing.T) {
	store := newStore(t)
	seedArticle(t, store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(store, nil).Run(ctx, []string{"antique-lamps"}, nil)
	assert.Error(t, err)
}
