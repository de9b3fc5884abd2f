package serp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/pkg/config"
)

func TestSERPResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "rolex submariner", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{
			"search_information":{"total_results":1200000},
			"answer_box":{"snippet":"The Submariner is a dive watch."},
			"organic_results":[
				{"position":1,"title":"Rolex Submariner - Official","link":"https://rolex.example/sub","snippet":"Dive watch"},
				{"position":2,"title":"Submariner history","link":"https://blog.example/history"}
			]}`))
	}))
	defer server.Close()

	adapter := NewSerpAPIAdapter(config.ProviderConfig{APIKey: "key", BaseURL: server.URL}, server.Client())
	res := adapter.SERPResults(context.Background(), providers.SERPRequest{Keyword: "rolex submariner"})
	require.True(t, res.IsOK(), "%v", res.Err)
	assert.Equal(t, int64(1200000), res.Value.TotalResults)
	assert.Equal(t, "The Submariner is a dive watch.", res.Value.FeaturedSnippet)
	assert.Equal(t, []string{"Rolex Submariner - Official", "Submariner history"}, res.Value.Titles())
}

func TestSERPResultsErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Google hasn't returned any results for this query."}`))
	}))
	defer server.Close()

	adapter := NewSerpAPIAdapter(config.ProviderConfig{APIKey: "key", BaseURL: server.URL}, server.Client())
	res := adapter.SERPResults(context.Background(), providers.SERPRequest{Keyword: "zzzz"})
	require.False(t, res.IsOK())
	assert.Equal(t, providers.ErrSchema, res.Err.Kind)
}

func TestSERPResultsWithoutKey(t *testing.T) {
	adapter := NewSerpAPIAdapter(config.ProviderConfig{BaseURL: "http://unused"}, http.DefaultClient)
	res := adapter.SERPResults(context.Background(), providers.SERPRequest{Keyword: "x"})
	require.False(t, res.IsOK())
	assert.Equal(t, providers.ErrAuthMissing, res.Err.Kind)
}
