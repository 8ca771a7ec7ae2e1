package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fernhq/fern/adapter/api"
	"github.com/fernhq/fern/internal/app"
	"github.com/fernhq/fern/pkg/config"
	"github.com/fernhq/fern/pkg/observability"
)

func main() {
	logger := observability.NewLogger(observability.LogConfig{
		Level:       "info",
		Format:      observability.LogFormatJSON,
		ServiceName: "fernd",
	})

	logger.Info("starting fern entitlement API")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = observability.NewLogger(observability.LogConfig{
		Level:       cfg.LogLevel,
		Format:      observability.LogFormatJSON,
		ServiceName: "fernd",
	})

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	entitlementHandler := api.NewEntitlementHandler(container.EntitlementService, container.SnapshotStore, logger)
	billingHandler := api.NewBillingHandler(container.BillingService, logger)

	serverCfg := api.ServerConfig{
		Addr:         cfg.APIAddr,
		ReadTimeout:  cfg.APIReadTimeout,
		WriteTimeout: cfg.APIWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	server := api.NewServer(serverCfg, entitlementHandler, billingHandler, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown error", "error", err)
	}

	logger.Info("fern entitlement API stopped")
}
