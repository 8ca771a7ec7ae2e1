package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fernhq/fern/internal/app"
	"github.com/fernhq/fern/internal/shared/infrastructure/eventbus"
	"github.com/fernhq/fern/pkg/config"
	"github.com/fernhq/fern/pkg/observability"
)

func main() {
	logger := observability.NewLogger(observability.LogConfig{
		Level:       "info",
		Format:      observability.LogFormatJSON,
		ServiceName: "fern-worker",
	})

	logger.Info("starting fern worker")

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
		ServiceName: "fern-worker",
	})

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	if container.SubscriptionSubscriber == nil {
		// Without Redis there are no snapshots to invalidate.
		logger.Error("worker requires Redis for snapshot invalidation")
		os.Exit(1)
	}

	registry := eventbus.NewConsumerRegistry(logger)
	consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
		URL:       cfg.RabbitMQURL,
		QueueName: cfg.WorkerQueueName,
		Logger:    logger,
	}, registry)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	consumer.RegisterConsumer(container.SubscriptionSubscriber)

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("fern worker stopped")
}
