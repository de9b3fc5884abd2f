package keywords

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

func newAdapter(t *testing.T, handler http.HandlerFunc) *DataForSEOAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewDataForSEOAdapter(config.ProviderConfig{BaseURL: server.URL, Login: "user", Password: "pass"}, server.Client())
}

func TestKeywordMetrics(t *testing.T) {
	adapter := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		login, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "user", login)
		assert.Equal(t, "pass", pass)
		assert.Equal(t, "/v3/keywords_data/google_ads/search_volume/live", r.URL.Path)
		_, _ = w.Write([]byte(`{"status_code":20000,"tasks":[{"status_code":20000,"result":[
			{"keyword":"rolex submariner","search_volume":74000,"cpc":1.8,"competition_index":62,
			 "monthly_searches":[{"year":2026,"month":1,"search_volume":70000},{"year":2025,"month":12,"search_volume":78000}]}]}]}`))
	})

	res := adapter.KeywordMetrics(context.Background(), providers.KeywordRequest{Slug: "rolex-submariner", Keyword: "rolex submariner"})
	require.True(t, res.IsOK(), "%v", res.Err)
	assert.Equal(t, 74000, res.Value.SearchVolume)
	assert.InDelta(t, 0.62, res.Value.Competition, 1e-9)
	assert.Equal(t, []int{70000, 78000}, res.Value.Trend)
	assert.Equal(t, providers.EndpointKeywordMetrics, res.Meta.Endpoint)
	assert.Equal(t, "dataforseo", res.Meta.Provider)
}

func TestRelatedKeywords(t *testing.T) {
	adapter := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status_code":20000,"tasks":[{"status_code":20000,"result":[{"items":[
			{"depth":1,"keyword_data":{"keyword":"submariner date","keyword_info":{"search_volume":12000}}},
			{"depth":2,"keyword_data":{"keyword":"","keyword_info":{}}}]}]}]}`))
	})

	res := adapter.RelatedKeywords(context.Background(), providers.KeywordRequest{Keyword: "rolex submariner"})
	require.True(t, res.IsOK())
	require.Len(t, res.Value.Items, 1)
	assert.Equal(t, "submariner date", res.Value.Items[0].Keyword)
	assert.Equal(t, 12000, res.Value.Items[0].SearchVolume)
}

func TestTaskLevelErrorsAreClassified(t *testing.T) {
	adapter := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status_code":20000,"tasks":[{"status_code":50000,"status_message":"internal"}]}`))
	})

	res := adapter.KeywordMetrics(context.Background(), providers.KeywordRequest{Keyword: "x"})
	require.False(t, res.IsOK())
	assert.Equal(t, providers.ErrUpstream5xx, res.Err.Kind)
	assert.True(t, res.Err.Retriable)
}

func TestMissingCredentials(t *testing.T) {
	adapter := NewDataForSEOAdapter(config.ProviderConfig{BaseURL: "http://unused"}, http.DefaultClient)
	res := adapter.KeywordMetrics(context.Background(), providers.KeywordRequest{Keyword: "x"})
	require.False(t, res.IsOK())
	assert.Equal(t, providers.ErrAuthMissing, res.Err.Kind)
}

func TestHTTPFailureIsClassified(t *testing.T) {
	adapter := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	res := adapter.RelatedKeywords(context.Background(), providers.KeywordRequest{Keyword: "x"})
	require.False(t, res.IsOK())
	assert.Equal(t, providers.ErrAuthRejected, res.Err.Kind)
}
