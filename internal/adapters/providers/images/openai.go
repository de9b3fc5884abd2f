package images

import (
	"context"
	"fmt"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/infrastructure/clients/openai"
)

var _ providers.ImageProvider = (*OpenAIAdapter)(nil)

// ImageGenerator is the subset of the OpenAI client the adapter needs
type ImageGenerator interface {
	GenerateImage(ctx context.Context, model, prompt, size string) (*openai.Image, *providers.ProviderError)
}

// OpenAIAdapter serves generate_image
type OpenAIAdapter struct {
	client ImageGenerator
	model  string
}

// NewOpenAIAdapter wraps an image generator
func NewOpenAIAdapter(client ImageGenerator, model string) *OpenAIAdapter {
	return &OpenAIAdapter{client: client, model: model}
}

// GenerateImage returns a reference to the generated featured image
func (a *OpenAIAdapter) GenerateImage(ctx context.Context, req providers.ImageRequest) providers.Result[entities.ImageRef] {
	prompt := req.Prompt
	if prompt == "" {
		prompt = fmt.Sprintf("Featured image for an article about %s.", req.Term)
	}
	img, perr := a.client.GenerateImage(ctx, a.model, prompt+openai.ImagePromptSuffix, req.Size)
	if perr != nil {
		return providers.Fail[entities.ImageRef](perr)
	}

	url := img.URL
	if url == "" {
		url = "data:image/png;base64," + img.B64
	}
	return providers.OK(entities.ImageRef{
		URL:    url,
		Alt:    req.Term,
		Prompt: prompt,
	}, providers.ResultMeta{Endpoint: providers.EndpointGenerateImage, Provider: "openai"})
}
