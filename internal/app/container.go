// Package app wires configuration into the artifact store, provider adapters,
// policy gateway, stage services and workflow engine shared by every binary.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zatekoja/articleforge/internal/adapters/database"
	"github.com/zatekoja/articleforge/internal/adapters/events"
	"github.com/zatekoja/articleforge/internal/adapters/locks"
	"github.com/zatekoja/articleforge/internal/adapters/providers/cms"
	"github.com/zatekoja/articleforge/internal/adapters/providers/images"
	"github.com/zatekoja/articleforge/internal/adapters/providers/keywords"
	"github.com/zatekoja/articleforge/internal/adapters/providers/llm"
	"github.com/zatekoja/articleforge/internal/adapters/providers/mock"
	"github.com/zatekoja/articleforge/internal/adapters/providers/paa"
	"github.com/zatekoja/articleforge/internal/adapters/providers/serp"
	"github.com/zatekoja/articleforge/internal/adapters/providers/valuation"
	"github.com/zatekoja/articleforge/internal/adapters/search"
	"github.com/zatekoja/articleforge/internal/adapters/storage"
	"github.com/zatekoja/articleforge/internal/application/policy"
	"github.com/zatekoja/articleforge/internal/application/services"
	"github.com/zatekoja/articleforge/internal/application/workflow"
	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/domain/repositories"
	"github.com/zatekoja/articleforge/internal/infrastructure/clients/anthropic"
	"github.com/zatekoja/articleforge/internal/infrastructure/clients/openai"
	"github.com/zatekoja/articleforge/internal/infrastructure/clients/postgres"
	redisclient "github.com/zatekoja/articleforge/internal/infrastructure/clients/redis"
	tsclient "github.com/zatekoja/articleforge/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
	"github.com/zatekoja/articleforge/pkg/config"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
)

// Container holds everything a binary needs to drive the pipeline
type Container struct {
	Config   *config.Config
	Metrics  *observability.Metrics
	Store    providers.ArtifactStore
	Gateway  *policy.Gateway
	Services workflow.Services
	Engine   *workflow.Engine

	// Optional infrastructure; nil when not configured
	Events  providers.RunEventBus
	History repositories.RunHistoryRepository
	Index   *search.TypesenseAdapter

	closers []func() error
}

// Overrides replaces pieces of the container, mostly for tests
type Overrides struct {
	Store    providers.ArtifactStore
	Adapters *providers.Adapters
	Now      func() time.Time
}

// New builds a container from cfg. Optional backends that are configured but
// unreachable fail the build with a CONFIG error.
func New(ctx context.Context, cfg *config.Config, overrides Overrides) (*Container, error) {
	c := &Container{Config: cfg}
	logger := observability.LoggerFromContext(ctx)

	metrics, err := observability.InitMetrics()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to initialize metrics", err)
	}
	c.Metrics = metrics

	c.Store = overrides.Store
	if c.Store == nil {
		if c.Store, err = c.buildStore(ctx); err != nil {
			c.Close()
			return nil, err
		}
	}

	live := BuildAdapters(cfg)
	if overrides.Adapters != nil {
		live = *overrides.Adapters
	}
	gwOpts := policy.Options{
		Retry:           policy.RetryConfigFrom(cfg.Retry),
		Mode:            cfg.App.Mode,
		Live:            live,
		BreakerFailures: uint32(cfg.Retry.BreakerFailures),
		BreakerCooldown: cfg.Retry.BreakerCooldown,
		Metrics:         metrics,
	}
	if cfg.IsDevelopment() {
		mocks := mock.NewAdapters()
		gwOpts.Mocks = &mocks
	}
	c.Gateway = policy.NewGateway(gwOpts)

	var locker providers.SlugLocker = locks.NewMemoryLocker()
	if cfg.Redis.Enabled {
		client, err := redisclient.NewClient(ctx, redisclient.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			c.Close()
			return nil, apperrors.NewConfigError("redis unavailable at "+cfg.RedisAddr(), err)
		}
		c.closers = append(c.closers, client.Close)
		locker = locks.NewRedisLocker(client.Client(), "", cfg.Workflow.LockTTL)
		bus := events.NewRedisRunEventBus(client, cfg.Redis.Channel)
		c.Events = bus
		c.closers = append(c.closers, bus.Close)
		logger.Info().Str("addr", cfg.RedisAddr()).Msg("redis locks and run events enabled")
	}

	if cfg.Database.URL != "" {
		client, err := postgres.NewClient(ctx, cfg.Database)
		if err != nil {
			c.Close()
			return nil, apperrors.NewConfigError("run history database unavailable", err)
		}
		c.closers = append(c.closers, client.Close)
		history := database.NewRunHistoryAdapter(client)
		if err := history.EnsureSchema(ctx); err != nil {
			c.Close()
			return nil, apperrors.NewConfigError("failed to prepare run history schema", err)
		}
		c.History = history
		logger.Info().Msg("run history enabled")
	}

	if cfg.Typesense.URL != "" {
		client, err := tsclient.NewClient(ctx, cfg.Typesense)
		if err != nil {
			c.Close()
			return nil, apperrors.NewConfigError("search index unavailable at "+cfg.Typesense.URL, err)
		}
		index := search.NewTypesenseAdapter(client, nil)
		if err := index.InitSchema(ctx); err != nil {
			c.Close()
			return nil, apperrors.NewConfigError("failed to prepare search index schema", err)
		}
		c.Index = index
		logger.Info().Str("collection", client.Collection()).Msg("search index enabled")
	}

	deps := services.Deps{Store: c.Store, Gateway: c.Gateway, Metrics: metrics, Now: overrides.Now}
	exportCfg := services.ExportConfig{Dir: cfg.Workflow.ExportDir}
	if c.Index != nil {
		exportCfg.Index = c.Index
	}
	c.Services = workflow.Services{
		Research:  services.NewResearchService(deps),
		Analysis:  services.NewAnalysisService(deps),
		Valuation: services.NewValuationService(deps),
		Enhancement: services.NewEnhancementService(deps, services.EnhancementConfig{
			MinWords: cfg.Workflow.SectionMinWords,
			MaxWords: cfg.Workflow.SectionMaxWords,
			Images:   cfg.Providers.Image.APIKey != "" || cfg.IsDevelopment(),
		}),
		Optimization: services.NewOptimizationService(deps, services.OptimizationConfig{
			DensityMin: cfg.Workflow.DensityMin,
			DensityMax: cfg.Workflow.DensityMax,
		}),
		Render: services.NewRenderService(deps, cfg.Workflow.Draft),
		Export: services.NewExportService(deps, exportCfg),
	}

	engineOpts := workflow.Options{
		Store:             c.Store,
		Services:          c.Services,
		Locker:            locker,
		Events:            c.Events,
		History:           c.History,
		Metrics:           metrics,
		Mode:              cfg.App.Mode,
		BatchSize:         cfg.Workflow.BatchSize,
		ContinueOnFailure: cfg.Workflow.ContinueOnFailure,
		StageTimeouts:     stageDurations(cfg.Workflow.StageTimeouts),
		StageTTLs:         stageDurations(cfg.Workflow.StageTTLs),
		Now:               overrides.Now,
	}
	if c.Engine, err = workflow.NewEngine(engineOpts); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Close releases every backend the container opened
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Container) buildStore(ctx context.Context) (providers.ArtifactStore, error) {
	cfg := c.Config.Storage
	var store providers.ArtifactStore
	if cfg.Bucket != "" {
		blobStore, err := storage.NewBlobStore(ctx, cfg.Bucket, cfg.Prefix)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, blobStore.Close)
		store = blobStore
	} else {
		fsStore, err := storage.NewFSStore(cfg.RootDir)
		if err != nil {
			return nil, err
		}
		store = fsStore
	}

	if cfg.CacheSize > 0 {
		cached, err := storage.NewCachedStore(store, cfg.CacheSize)
		if err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("invalid artifact cache size %d", cfg.CacheSize), err)
		}
		store = cached
	}
	return store, nil
}

// BuildAdapters constructs the live HTTP adapters. Adapters with missing
// credentials are still registered and fail their calls with auth_missing.
func BuildAdapters(cfg *config.Config) providers.Adapters {
	p := cfg.Providers
	adapters := providers.Adapters{
		Keywords:   keywords.NewDataForSEOAdapter(p.Keywords, nil),
		SERP:       serp.NewSerpAPIAdapter(p.SERP, nil),
		PAA:        paa.NewHTMLAdapter(p.PAA, nil),
		Analytical: llm.NewAnalyticalAdapter(anthropic.NewClient(p.Anthropic, nil)),
		Generative: llm.NewGenerativeAdapter(openai.NewClient(p.OpenAI, nil)),
		Images:     images.NewOpenAIAdapter(openai.NewClient(p.Image, nil), p.Image.Model),
		Valuation:  valuation.NewHTTPAdapter(p.Valuation, nil),
	}
	if p.CMS.BaseURL != "" {
		adapters.Publisher = cms.NewWordPressPublisher(p.CMS, nil)
	}
	return adapters
}

func stageDurations(in map[string]time.Duration) map[entities.Stage]time.Duration {
	out := make(map[entities.Stage]time.Duration, len(in))
	for name, d := range in {
		if d > 0 {
			out[entities.Stage(name)] = d
		}
	}
	return out
}
