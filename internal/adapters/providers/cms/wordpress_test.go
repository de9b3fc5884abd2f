package cms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/pkg/config"
)

func TestPublish(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wp/v2/posts", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "draft", body["status"])
		assert.Equal(t, "rolex-submariner", body["slug"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":42,"link":"https://blog.example/rolex-submariner"}`))
	}))
	defer server.Close()

	pub := NewWordPressPublisher(config.ProviderConfig{APIKey: "token", BaseURL: server.URL}, server.Client())
	res := pub.Publish(context.Background(), providers.PublishRequest{Slug: "rolex-submariner", Title: "Rolex Submariner"})
	require.True(t, res.IsOK(), "%v", res.Err)
	assert.Equal(t, "42", res.Value.ID)
	assert.Equal(t, "https://blog.example/rolex-submariner", res.Value.URL)
}

func TestPublishConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer server.Close()

	pub := NewWordPressPublisher(config.ProviderConfig{APIKey: "token", BaseURL: server.URL}, server.Client())
	res := pub.Publish(context.Background(), providers.PublishRequest{Slug: "x"})
	require.False(t, res.IsOK())
	assert.Equal(t, providers.ErrUpstream4xx, res.Err.Kind)
}
