package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite" // SQLite driver for local mode

	billingApp "github.com/fernhq/fern/internal/billing/application"
	billingDomain "github.com/fernhq/fern/internal/billing/domain"
	billingPersistence "github.com/fernhq/fern/internal/billing/infrastructure/persistence"
	entitlementApp "github.com/fernhq/fern/internal/entitlement/application"
	"github.com/fernhq/fern/internal/entitlement/application/subscribers"
	"github.com/fernhq/fern/internal/entitlement/cache"
	entitlementDomain "github.com/fernhq/fern/internal/entitlement/domain"
	entitlementPersistence "github.com/fernhq/fern/internal/entitlement/infrastructure/persistence"
	"github.com/fernhq/fern/internal/shared/infrastructure/eventbus"
	"github.com/fernhq/fern/internal/shared/infrastructure/migrations"
	"github.com/fernhq/fern/pkg/config"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database (exactly one of DB / SQLiteDB is set)
	DB       *pgxpool.Pool
	SQLiteDB *sql.DB

	// Redis
	RedisClient *redis.Client

	// Repositories
	SubscriptionRepo billingDomain.SubscriptionRepository
	UsageRepo        entitlementDomain.UsageRepository
	PromptRepo       entitlementDomain.PromptLogRepository

	// Snapshot store (nil when Redis is unavailable)
	SnapshotStore *cache.RedisSnapshotStore

	// Event bus
	EventPublisher         eventbus.Publisher
	InProcessEventBus      *eventbus.InProcessEventBus
	SubscriptionSubscriber *subscribers.SubscriptionSubscriber

	// Services
	BillingService     *billingApp.Service
	EntitlementService *entitlementApp.Service
}

// NewContainer creates and wires all dependencies for server mode:
// PostgreSQL as the authoritative store, Redis for snapshots, RabbitMQ
// for domain events. Redis and RabbitMQ degrade gracefully in
// development; PostgreSQL is required.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := migrations.ApplyPostgres(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	c.DB = pool
	logger.Info("connected to database")

	// Connect to Redis (optional in development)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			if !cfg.IsDevelopment() {
				pool.Close()
				return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			logger.Warn("invalid Redis URL, snapshots disabled", "error", err)
		} else {
			redisClient := redis.NewClient(opt)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				if !cfg.IsDevelopment() {
					pool.Close()
					return nil, fmt.Errorf("failed to connect to Redis: %w", err)
				}
				logger.Warn("Redis not available, snapshots disabled", "error", err)
			} else {
				c.RedisClient = redisClient
				c.SnapshotStore = cache.NewRedisSnapshotStore(redisClient, cfg.SnapshotTTL)
				logger.Info("connected to Redis")
			}
		}
	}

	c.SubscriptionRepo = billingPersistence.NewPostgresSubscriptionRepository(pool)
	c.UsageRepo = entitlementPersistence.NewPostgresUsageRepository(pool)
	c.PromptRepo = entitlementPersistence.NewPostgresPromptLogRepository(pool)

	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		// Fall back to noop publisher in development
		if cfg.IsDevelopment() {
			logger.Warn("RabbitMQ not available, using noop publisher")
			c.EventPublisher = eventbus.NewNoopPublisher(logger)
		} else {
			pool.Close()
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
	} else {
		c.EventPublisher = publisher
	}

	c.wireServices()

	if c.SnapshotStore != nil {
		c.SubscriptionSubscriber = subscribers.NewSubscriptionSubscriber(c.SnapshotStore, logger)
	}

	return c, nil
}

// NewLocalContainer creates a container for local mode with SQLite.
// This is the device-side projection: zero-config, no PostgreSQL,
// Redis, or RabbitMQ. Domain events flow over an in-process bus.
func NewLocalContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	dbConn, err := sql.Open("sqlite", cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// SQLite serializes writers; a single connection avoids busy errors.
	dbConn.SetMaxOpenConns(1)
	if err := migrations.ApplySQLite(ctx, dbConn); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	c.SQLiteDB = dbConn

	c.SubscriptionRepo = billingPersistence.NewSQLiteSubscriptionRepository(dbConn)
	c.UsageRepo = entitlementPersistence.NewSQLiteUsageRepository(dbConn)
	c.PromptRepo = entitlementPersistence.NewSQLitePromptLogRepository(dbConn)

	c.InProcessEventBus = eventbus.NewInProcessEventBus(logger)
	c.EventPublisher = c.InProcessEventBus

	c.wireServices()

	logger.Info("local mode container initialized",
		"database", cfg.SQLitePath,
		"driver", "sqlite",
	)

	return c, nil
}

// NewMemoryContainer creates a container backed entirely by in-memory
// stores. Useful for tests and for exercising the CLI without a
// database file.
func NewMemoryContainer(cfg *config.Config, logger *slog.Logger) *Container {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	c.SubscriptionRepo = billingPersistence.NewMemorySubscriptionRepository()
	c.UsageRepo = entitlementPersistence.NewMemoryUsageRepository()
	c.PromptRepo = entitlementPersistence.NewMemoryPromptLogRepository()

	c.InProcessEventBus = eventbus.NewInProcessEventBus(logger)
	c.EventPublisher = c.InProcessEventBus

	c.wireServices()

	return c
}

func (c *Container) wireServices() {
	c.BillingService = billingApp.NewService(c.SubscriptionRepo, c.EventPublisher, c.Logger)

	svcCfg := entitlementApp.DefaultConfig()
	if c.Config != nil {
		if c.Config.BreakerTimeout > 0 {
			svcCfg.BreakerTimeout = c.Config.BreakerTimeout
		}
		if c.Config.BreakerFailureThreshold > 0 {
			svcCfg.BreakerFailureThreshold = uint32(c.Config.BreakerFailureThreshold)
		}
	}
	c.EntitlementService = entitlementApp.NewService(
		c.SubscriptionRepo,
		c.UsageRepo,
		c.PromptRepo,
		c.EventPublisher,
		svcCfg,
		c.Logger,
	)
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		}
	}

	if c.DB != nil {
		c.DB.Close()
		c.Logger.Info("PostgreSQL connection closed")
	}

	if c.SQLiteDB != nil {
		if err := c.SQLiteDB.Close(); err != nil {
			c.Logger.Warn("error closing SQLite connection", "error", err)
		}
	}
}
