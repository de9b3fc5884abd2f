package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/articleforge/internal/api/handlers"
	"github.com/zatekoja/articleforge/internal/api/routes"
	"github.com/zatekoja/articleforge/internal/app"
	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
	"github.com/zatekoja/articleforge/pkg/config"
	"github.com/zatekoja/articleforge/pkg/secrets"
)

func main() {
	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Pull provider credentials from Vault before configuration is read
	vault, err := secrets.ApplyVaultSecrets(ctx, secrets.LoadVaultConfigFromEnv(""))
	if err != nil {
		observability.InitLogger("articleforge-api", "production")
		log.Fatal().Err(err).Msg("Failed to load secrets from vault")
	}

	cfg, err := config.Load()
	if err != nil {
		observability.InitLogger("articleforge-api", "production")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLoggerWithOutput(cfg.App.Name+"-api", cfg.App.Env, cfg.App.LogLevel, os.Stdout)
	if vault.Enabled {
		log.Info().Int("loaded", vault.Loaded).Int("skipped", vault.Skipped).Msg("Vault secrets applied")
	}

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled {
		shutdown, err := observability.Setup(ctx, observability.SetupOptions{
			ServiceName:    cfg.OTEL.ServiceName,
			ServiceVersion: cfg.OTEL.ServiceVersion,
			Exporter:       cfg.OTEL.Exporter,
			Endpoint:       cfg.OTEL.Endpoint,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("exporter", cfg.OTEL.Exporter).Msg("OpenTelemetry initialized")
		}
	}

	container, err := app.New(ctx, cfg, app.Overrides{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire application")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing resources")
		}
	}()

	// Initialize handlers
	workflowHandler := handlers.NewWorkflowHandler(container.Engine)
	contentHandler := handlers.NewContentHandler(container.Store)
	healthHandler := handlers.NewHealthHandler(cfg.App.Name)

	var sseHandler *handlers.SSEHandler
	if container.Events != nil {
		sseHandler = handlers.NewSSEHandler(container.Events, handlers.DefaultHeartbeat)
		log.Info().Msg("Run event stream enabled")
	} else {
		log.Info().Msg("Run event stream disabled (Redis not configured)")
	}

	// Set up router
	router := routes.NewRouter(
		workflowHandler,
		contentHandler,
		healthHandler,
		sseHandler,
		cfg.Server.AllowedOrigins,
		container.Metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Str("mode", string(cfg.App.Mode)).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}
	// running workflows checkpoint and stop
	cancel()

	log.Info().Msg("Server stopped")
}
