package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/articleforge/internal/adapters/storage"
	"github.com/zatekoja/articleforge/internal/api/handlers"
	"github.com/zatekoja/articleforge/internal/domain/entities"
)

type contentBody struct {
	Success bool `json:"success"`
	Data    struct {
		Path     string                `json:"path"`
		Content  json.RawMessage       `json:"content"`
		Metadata entities.ArtifactMeta `json:"metadata"`
	} `json:"data"`
}

func newContentHandler(t *testing.T) (*handlers.ContentHandler, *storage.FSStore) {
	t.Helper()
	store, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	return handlers.NewContentHandler(store), store
}

func contentRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, "/content/"+path, strings.NewReader(body))
	req.SetPathValue("path", path)
	return req
}

func TestContentHandler_GetStructured(t *testing.T) {
	handler, store := newContentHandler(t)
	require.NoError(t, storage.PutJSON(context.Background(), store, "trail-shoes/research/keyword.json",
		map[string]interface{}{"volume": 1200}, entities.ArtifactMeta{Term: "trail shoes", Provider: "keywords"}))

	w := httptest.NewRecorder()
	handler.GetContent(w, contentRequest("GET", "trail-shoes/research/keyword.json", ""))

	require.Equal(t, http.StatusOK, w.Code)
	var body contentBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "trail-shoes/research/keyword.json", body.Data.Path)
	assert.JSONEq(t, `{"volume":1200}`, string(body.Data.Content))
	assert.Equal(t, "keywords", body.Data.Metadata.Provider)
	assert.NotEmpty(t, body.Data.Metadata.SHA256)
}

func TestContentHandler_GetText(t *testing.T) {
	handler, store := newContentHandler(t)
	require.NoError(t, storage.PutText(context.Background(), store, "trail-shoes/article.md",
		"# Trail Shoes\n", entities.MediaTypeMarkdown, entities.ArtifactMeta{}))

	w := httptest.NewRecorder()
	handler.GetContent(w, contentRequest("GET", "trail-shoes/article.md", ""))

	require.Equal(t, http.StatusOK, w.Code)
	var body contentBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	var text string
	require.NoError(t, json.Unmarshal(body.Data.Content, &text))
	assert.Equal(t, "# Trail Shoes\n", text)
}

func TestContentHandler_GetMissing(t *testing.T) {
	handler, _ := newContentHandler(t)
	w := httptest.NewRecorder()

	handler.GetContent(w, contentRequest("GET", "nothing/here.json", ""))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContentHandler_RejectsEscapingPath(t *testing.T) {
	handler, _ := newContentHandler(t)
	w := httptest.NewRecorder()

	handler.PutContent(w, contentRequest("POST", "../outside.json", `{"content":"x"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContentHandler_PutThenGet(t *testing.T) {
	handler, store := newContentHandler(t)

	t.Run("structured content with metadata", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.PutContent(w, contentRequest("POST", "manual/notes.json",
			`{"content": {"a": [1, 2]}, "metadata": {"editor": "ops"}}`))

		require.Equal(t, http.StatusCreated, w.Code)
		var body contentBody
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.True(t, body.Success)
		assert.Equal(t, "ops", body.Data.Metadata.Extra["editor"])

		artifact, err := store.Get(context.Background(), "manual/notes.json")
		require.NoError(t, err)
		assert.Equal(t, `{"a":[1,2]}`, artifact.Text())
		assert.True(t, artifact.Meta.IsStructured())
	})

	t.Run("text content", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.PutContent(w, contentRequest("POST", "manual/draft.md", `{"content": "# Draft\n"}`))

		require.Equal(t, http.StatusCreated, w.Code)
		artifact, err := store.Get(context.Background(), "manual/draft.md")
		require.NoError(t, err)
		assert.Equal(t, "# Draft\n", artifact.Text())
		assert.Equal(t, entities.MediaTypeMarkdown, artifact.Meta.MediaType)
	})

	t.Run("missing content", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.PutContent(w, contentRequest("POST", "manual/empty.md", `{"metadata": {}}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, store.Exists(context.Background(), "manual/empty.md"))
	})
}
