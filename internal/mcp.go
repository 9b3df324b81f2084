package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/starford/daybook/internal/cache"
	"github.com/starford/daybook/internal/mcpserver"
	"github.com/starford/daybook/internal/service"
	"github.com/starford/daybook/internal/sse"
	"github.com/starford/daybook/internal/trackers"
)

// RunMCP starts the MCP stdio server over the same cache and gateway the
// HTTP server uses. Logs go to stderr so stdout stays clean for the MCP
// transport.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	store, err := openStore(cfg.Cache)
	if err != nil {
		return fmt.Errorf("init cache store: %w", err)
	}
	defer store.Close()

	table, err := trackers.Load(cfg.Trackers.Path)
	if err != nil {
		return fmt.Errorf("load trackers: %w", err)
	}

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc := service.New(cache.New(store, logger), buildGateway(cfg.Remote), broker, table, logger)

	logger.Info("MCP server starting on stdio", slog.String("user", cfg.App.DefaultUser))
	return mcpserver.New(svc, cfg.App.DefaultUser).ServeStdio()
}
