// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/starford/daybook/internal/api"
	"github.com/starford/daybook/internal/cache"
	"github.com/starford/daybook/internal/cachestore"
	"github.com/starford/daybook/internal/remote"
	"github.com/starford/daybook/internal/service"
	"github.com/starford/daybook/internal/sse"
	"github.com/starford/daybook/internal/sync"
	"github.com/starford/daybook/internal/trackers"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("cache_backend", cfg.Cache.Backend),
		slog.String("remote_mode", cfg.Remote.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Open the cache store.
	store, err := openStore(cfg.Cache)
	if err != nil {
		return fmt.Errorf("init cache store: %w", err)
	}
	defer store.Close()

	domainCache := cache.New(store, logger)

	// Remote gateway.
	gateway := buildGateway(cfg.Remote)

	// Tracker descriptor table.
	table, err := trackers.Load(cfg.Trackers.Path)
	if err != nil {
		return fmt.Errorf("load trackers: %w", err)
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Domain service and sync orchestrator.
	svc := service.New(domainCache, gateway, broker, table, logger)
	orch := sync.New(domainCache, gateway, broker, svc.Trackers, cfg.Sync.Months, logger)

	// Build API router.
	apiRouter := api.NewRouter(svc, orch, cfg.Auth.AuthEnabled(), cfg.Auth.Token, cfg.App.DefaultUser, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Prometheus metrics (unauthenticated).
	r.Handle("/metrics", promhttp.Handler())

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Startup sync for the default user.
	g.Go(func() error {
		if _, err := orch.CheckAndSync(gCtx, cfg.App.DefaultUser); err != nil {
			logger.Warn("startup sync failed", slog.String("error", err.Error()))
		}
		return nil
	})

	// Background sync schedule.
	g.Go(func() error {
		err := orch.RunSchedule(gCtx, cfg.Sync.Cron)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	// Tracker descriptor hot reload.
	if cfg.Trackers.Watch && cfg.Trackers.Path != "" {
		g.Go(func() error {
			err := trackers.Watch(gCtx, cfg.Trackers.Path, logger, svc.SetTrackers)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("tracker watch stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// openStore opens the configured cache store backend.
func openStore(cfg CacheConfig) (cachestore.Provider, error) {
	switch cfg.Backend {
	case CacheBackendSQLite:
		return cachestore.OpenSQLite(cfg.Path)
	case CacheBackendPebble:
		return cachestore.OpenPebble(cfg.Path)
	case CacheBackendMemory:
		return cachestore.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// buildGateway builds the configured remote gateway.
func buildGateway(cfg RemoteConfig) remote.Gateway {
	if cfg.Mode == RemoteModeHTTP {
		return remote.NewHTTPGateway(remote.HTTPOptions{
			BaseURL:         cfg.BaseURL,
			Token:           cfg.Token,
			Timeout:         time.Duration(cfg.TimeoutSeconds) * time.Second,
			WritesPerSecond: cfg.WritesPerSecond,
		})
	}
	return remote.NewMemory()
}
