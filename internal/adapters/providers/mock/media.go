package mock

import (
	"context"
	"fmt"
	"math"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
)

// Images serves generate_image
type Images struct{}

// GenerateImage returns a stable placeholder path
func (Images) GenerateImage(ctx context.Context, req providers.ImageRequest) providers.Result[entities.ImageRef] {
	return providers.OK(entities.ImageRef{
		URL:    fmt.Sprintf("/images/%s.png", req.Slug),
		Alt:    req.Term,
		Prompt: req.Prompt,
	}, meta(providers.EndpointGenerateImage))
}

// Valuation serves value_range
type Valuation struct{}

// ValueRange derives a stable band from the description
func (Valuation) ValueRange(ctx context.Context, req providers.ValuationRequest) providers.Result[entities.ValuationRange] {
	low := float64(50 * (1 + hash(req.Description)%400))
	return providers.OK(entities.ValuationRange{
		Low:      low,
		High:     math.Round(low * 1.5),
		Currency: "USD",
		Blurb:    req.Description,
		Source:   ProviderName,
	}, meta(providers.EndpointValueRange))
}

// Publisher serves the CMS target
type Publisher struct{}

// Publish acknowledges without contacting anything
func (Publisher) Publish(ctx context.Context, req providers.PublishRequest) providers.Result[providers.PublishReceipt] {
	return providers.OK(providers.PublishReceipt{
		ID:  "mock-" + req.Slug,
		URL: "https://cms.invalid/" + req.Slug,
	}, meta(providers.EndpointPublish))
}
