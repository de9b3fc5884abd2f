package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/articleforge/internal/adapters/search"
	"github.com/zatekoja/articleforge/internal/app"
	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
	"github.com/zatekoja/articleforge/pkg/config"
	"github.com/zatekoja/articleforge/pkg/secrets"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	observability.InitLogger("articleforge-indexer", os.Getenv("APP_ENV"))

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	var err error
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("Invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, reset); err != nil {
			log.Error().Err(err).Msg("Reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("interval", interval).Msg("Reindex complete, waiting for next run")

		select {
		case <-ctx.Done():
			log.Info().Msg("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, reset bool) error {
	if _, err := secrets.ApplyVaultSecrets(ctx, secrets.LoadVaultConfigFromEnv("")); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Typesense.URL == "" {
		return errors.New("TYPESENSE_URL is not set")
	}

	container, err := app.New(ctx, cfg, app.Overrides{})
	if err != nil {
		return err
	}
	defer container.Close()

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Msg("Reset requested, recreating articles collection")
		if err := container.Index.Reset(ctx); err != nil {
			return err
		}
	}

	stats, err := search.Rebuild(ctx, container.Store, container.Index)
	if err != nil {
		return err
	}
	log.Info().Int("indexed", stats.Indexed).Int("failed", stats.Failed).Msg("Articles indexed")
	return nil
}
