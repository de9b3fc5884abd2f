package valuation

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

func TestValueRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "steel automatic dive watch with black bezel and date window", body["description"])
		assert.Equal(t, "rolex-submariner", r.Header.Get("Idempotency-Key"))
		_, _ = w.Write([]byte(`{"low":9000,"high":14500,"currency":"usd"}`))
	}))
	defer server.Close()

	adapter := NewHTTPAdapter(config.ProviderConfig{APIKey: "k", BaseURL: server.URL}, server.Client())
	res := adapter.ValueRange(context.Background(), providers.ValuationRequest{
		Slug:        "rolex-submariner",
		Description: "steel automatic dive watch with black bezel and date window",
	})
	require.True(t, res.IsOK(), "%v", res.Err)
	assert.Equal(t, 9000.0, res.Value.Low)
	assert.Equal(t, 14500.0, res.Value.High)
	assert.Equal(t, "USD", res.Value.Currency)
}

func TestValueRangeInvertedBand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"low":10,"high":5}`))
	}))
	defer server.Close()

	adapter := NewHTTPAdapter(config.ProviderConfig{APIKey: "k", BaseURL: server.URL}, server.Client())
	res := adapter.ValueRange(context.Background(), providers.ValuationRequest{Description: "x"})
	require.False(t, res.IsOK())
	assert.Equal(t, providers.ErrSchema, res.Err.Kind)
}

func TestValueRangeUnconfigured(t *testing.T) {
	res := NewHTTPAdapter(config.ProviderConfig{}, http.DefaultClient).ValueRange(context.Background(), providers.ValuationRequest{})
	require.False(t, res.IsOK())
	assert.Equal(t, providers.ErrAuthMissing, res.Err.Kind)
}
