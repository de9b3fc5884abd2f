package providers

import (
	"context"

	"github.com/zatekoja/articleforge/internal/domain/entities"
)

// RunEventBus publishes workflow stage transitions
type RunEventBus interface {
	// Publish publishes an event to the run channels
	Publish(ctx context.Context, event entities.RunEvent) error

	// Subscribe streams events for one slug, or all runs when slug is empty
	Subscribe(ctx context.Context, slug string) (<-chan entities.RunEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}

// RunChannel returns the channel carrying events for slug under prefix
func RunChannel(prefix, slug string) string {
	if slug == "" {
		return prefix
	}
	return prefix + ":" + slug
}
