package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/fernhq/fern/adapter/cli"
	cliBilling "github.com/fernhq/fern/adapter/cli/billing"
	cliEntitlement "github.com/fernhq/fern/adapter/cli/entitlement"
	"github.com/fernhq/fern/internal/app"
	"github.com/fernhq/fern/pkg/config"
	"github.com/fernhq/fern/pkg/observability"
)

func main() {
	logger := observability.NewLogger(observability.DefaultLogConfig())

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("failed to load config, using development mode", "error", err)
		cfg = &config.Config{AppEnv: "development"}
	}

	logger = observability.NewLogger(observability.LogConfig{
		Level:       cfg.LogLevel,
		Format:      observability.LogFormatText,
		ServiceName: "fern",
	})
	cli.SetLogger(logger)

	// Local mode with SQLite when configured, otherwise the full server
	// container. In development a missing backend degrades to in-memory.
	var container *app.Container
	switch {
	case cfg.SQLitePath != "":
		container, err = app.NewLocalContainer(ctx, cfg, logger)
	default:
		container, err = app.NewContainer(ctx, cfg, logger)
	}
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		logger.Warn("backend unavailable, using in-memory stores", "error", err)
		container = app.NewMemoryContainer(cfg, logger)
	}
	defer container.Close()

	cliApp := cli.NewApp(container.EntitlementService, container.BillingService)

	userID, err := uuid.Parse(cfg.UserID)
	if err != nil {
		logger.Error("invalid FERN_USER_ID", "error", err)
		os.Exit(1)
	}
	cliApp.SetCurrentUserID(userID)
	cli.SetApp(cliApp)

	// Register commands
	cli.AddCommand(cliEntitlement.Cmd)
	cli.AddCommand(cliBilling.Cmd)

	// Execute CLI
	cli.Execute()
}
