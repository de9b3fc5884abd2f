package paa

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

const resultsPage = `<html><body>
<div class="related-question-pair" data-q="How much is a Rolex Submariner worth?">
  <div class="wDYxhc">Prices range from  $9,000 to
     $15,000 depending on reference.</div>
  <a href="https://watches.example/value">Source</a>
</div>
<div class="related-question-pair" data-q="Is the Submariner waterproof?">
  <div data-attrid="wa:/description">Rated to 300 metres.</div>
</div>
<div class="related-question-pair" data-q="how much is a rolex submariner worth?"></div>
<div data-q="   "></div>
</body></html>`

func TestParseQuestions(t *testing.T) {
	questions, err := ParseQuestions([]byte(resultsPage))
	require.NoError(t, err)
	require.Len(t, questions, 2)

	assert.Equal(t, "How much is a Rolex Submariner worth?", questions[0].Question)
	assert.Equal(t, "Prices range from $9,000 to $15,000 depending on reference.", questions[0].Answer)
	assert.Equal(t, "https://watches.example/value", questions[0].Source)
	assert.Equal(t, "Rated to 300 metres.", questions[1].Answer)
}

func TestParseQuestionsEmptyPage(t *testing.T) {
	questions, err := ParseQuestions([]byte("<html></html>"))
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func TestPAAQuestions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "html", r.URL.Query().Get("output"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer server.Close()

	adapter := NewHTMLAdapter(config.ProviderConfig{APIKey: "key", BaseURL: server.URL}, server.Client())
	res := adapter.PAAQuestions(context.Background(), providers.SERPRequest{Keyword: "rolex submariner"})
	require.True(t, res.IsOK(), "%v", res.Err)
	assert.Len(t, res.Value.Questions, 2)
	assert.Equal(t, providers.EndpointPAAQuestions, res.Meta.Endpoint)
}
