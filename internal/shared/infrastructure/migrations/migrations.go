// Package migrations holds the engine's schema. The surface is small
// enough that a single idempotent bootstrap per driver beats a full
// migration framework.
package migrations

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS subscriptions (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL UNIQUE,
	plan TEXT NOT NULL,
	status TEXT NOT NULL,
	trial_start TIMESTAMPTZ NOT NULL,
	trial_end TIMESTAMPTZ NOT NULL,
	current_period_end TIMESTAMPTZ,
	stripe_customer_id TEXT NOT NULL DEFAULT '',
	stripe_subscription_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	CHECK (trial_end >= trial_start)
);

CREATE TABLE IF NOT EXISTS usage_counters (
	user_id UUID PRIMARY KEY,
	day TEXT NOT NULL,
	messages_sent INTEGER NOT NULL DEFAULT 0,
	total_messages_sent INTEGER NOT NULL DEFAULT 0,
	data_imports_used INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS upgrade_prompts (
	user_id UUID NOT NULL,
	trigger_code TEXT NOT NULL,
	day_shown INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, trigger_code, day_shown)
);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS subscriptions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL UNIQUE,
	plan TEXT NOT NULL,
	status TEXT NOT NULL,
	trial_start TEXT NOT NULL,
	trial_end TEXT NOT NULL,
	current_period_end TEXT,
	stripe_customer_id TEXT NOT NULL DEFAULT '',
	stripe_subscription_id TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	CHECK (trial_end >= trial_start)
);

CREATE TABLE IF NOT EXISTS usage_counters (
	user_id TEXT PRIMARY KEY,
	day TEXT NOT NULL,
	messages_sent INTEGER NOT NULL DEFAULT 0,
	total_messages_sent INTEGER NOT NULL DEFAULT 0,
	data_imports_used INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS upgrade_prompts (
	user_id TEXT NOT NULL,
	trigger_code TEXT NOT NULL,
	day_shown INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (user_id, trigger_code, day_shown)
);
`

// ApplyPostgres bootstraps the schema on a Postgres pool.
func ApplyPostgres(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, postgresSchema)
	return err
}

// ApplySQLite bootstraps the schema on a SQLite connection.
func ApplySQLite(ctx context.Context, dbConn *sql.DB) error {
	_, err := dbConn.ExecContext(ctx, sqliteSchema)
	return err
}
