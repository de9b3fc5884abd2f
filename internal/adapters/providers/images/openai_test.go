package images

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/infrastructure/clients/openai"
)

type stubGenerator struct {
	img    *openai.Image
	err    *providers.ProviderError
	prompt string
}

func (s *stubGenerator) GenerateImage(ctx context.Context, model, prompt, size string) (*openai.Image, *providers.ProviderError) {
	s.prompt = prompt
	return s.img, s.err
}

func TestGenerateImage(t *testing.T) {
	stub := &stubGenerator{img: &openai.Image{B64: "AAAA"}}
	res := NewOpenAIAdapter(stub, "").GenerateImage(context.Background(), providers.ImageRequest{Term: "Rolex Submariner"})
	require.True(t, res.IsOK())
	assert.Equal(t, "data:image/png;base64,AAAA", res.Value.URL)
	assert.Equal(t, "Rolex Submariner", res.Value.Alt)
	assert.Contains(t, stub.prompt, "no text")
}

func TestGenerateImageFailure(t *testing.T) {
	stub := &stubGenerator{err: providers.NewProviderError(providers.ErrUpstream4xx, "content policy")}
	res := NewOpenAIAdapter(stub, "").GenerateImage(context.Background(), providers.ImageRequest{Term: "x"})
	require.False(t, res.IsOK())
	assert.Equal(t, providers.ErrUpstream4xx, res.Err.Kind)
}
