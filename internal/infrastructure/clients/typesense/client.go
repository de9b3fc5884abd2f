package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/typesense/typesense-go/v2/typesense"

	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
	"github.com/zatekoja/articleforge/pkg/config"
	"github.com/zatekoja/articleforge/pkg/retry"
)

// ArticlesCollection is the default collection for rendered articles
const ArticlesCollection = "articles"

// Client represents a Typesense client
type Client struct {
	client     *typesense.Client
	collection string
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(ctx context.Context, cfg config.TypesenseConfig) (*Client, error) {
	c := NewUnchecked(cfg)

	logger := observability.LoggerFromContext(ctx)
	err := retry.DoWithLog(
		ctx,
		retry.ConnectConfig(),
		"Typesense",
		func() error {
			healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			ok, err := c.client.Health(healthCtx, 2*time.Second)
			if err == nil && !ok {
				err = fmt.Errorf("typesense reported unhealthy")
			}
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			logger.Warn().Err(err).Int("attempt", attempt).Dur("next_delay", nextDelay).Msg("Typesense connection failed, retrying")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	logger.Info().Str("collection", c.collection).Msg("connected to Typesense")
	return c, nil
}

// NewUnchecked builds a client without the boot-time health check
func NewUnchecked(cfg config.TypesenseConfig) *Client {
	collection := cfg.Collection
	if collection == "" {
		collection = ArticlesCollection
	}
	return &Client{
		client: typesense.NewClient(
			typesense.WithServer(cfg.URL),
			typesense.WithAPIKey(cfg.APIKey),
			typesense.WithConnectionTimeout(5*time.Second),
		),
		collection: collection,
	}
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// Collection returns the configured collection name
func (c *Client) Collection() string {
	return c.collection
}
