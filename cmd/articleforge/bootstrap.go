package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/articleforge/internal/app"
	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
	"github.com/zatekoja/articleforge/pkg/config"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
	"github.com/zatekoja/articleforge/pkg/secrets"
)

// overrides is replaced by tests to run against canned adapters
var overrides app.Overrides

// runtime is everything a command needs once configuration is resolved
type runtime struct {
	cfg       *config.Config
	container *app.Container
	shutdown  func(context.Context) error
}

// bootstrap applies the vault overlay, loads configuration, sets up logging
// and telemetry, then wires the container.
func bootstrap(ctx context.Context) (*runtime, error) {
	vault, err := secrets.ApplyVaultSecrets(ctx, secrets.LoadVaultConfigFromEnv(""))
	if err != nil {
		return nil, apperrors.NewConfigError("failed to load secrets from vault", err)
	}

	path := cfgFile
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid configuration", err)
	}

	level := cfg.App.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	observability.InitLoggerWithOutput(cfg.App.Name, cfg.App.Env, level, os.Stderr)
	if vault.Enabled {
		log.Info().
			Str("path", vault.Path).
			Int("loaded", vault.Loaded).
			Int("skipped", vault.Skipped).
			Strs("ignored", vault.Ignored).
			Msg("vault secrets applied")
	}

	rt := &runtime{cfg: cfg, shutdown: func(context.Context) error { return nil }}
	if cfg.OTEL.Enabled {
		shutdown, err := observability.Setup(ctx, observability.SetupOptions{
			ServiceName:    cfg.OTEL.ServiceName,
			ServiceVersion: cfg.OTEL.ServiceVersion,
			Exporter:       cfg.OTEL.Exporter,
			Endpoint:       cfg.OTEL.Endpoint,
		})
		if err != nil {
			log.Warn().Err(err).Msg("OpenTelemetry disabled")
		} else {
			rt.shutdown = shutdown
		}
	}

	container, err := app.New(ctx, cfg, overrides)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.container = container
	return rt, nil
}

func (rt *runtime) close() {
	if rt.container != nil {
		if err := rt.container.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close resources")
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to flush telemetry")
	}
}
