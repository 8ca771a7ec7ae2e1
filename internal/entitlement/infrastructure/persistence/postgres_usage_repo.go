package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fernhq/fern/internal/entitlement/domain"
	"github.com/fernhq/fern/internal/shared/infrastructure/database"
)

// PostgresUsageRepository implements UsageRepository with PostgreSQL.
//
// One row per user, keyed by user_id; the day column identifies which UTC
// calendar day the counters belong to. Day rollover happens on read via a
// conditional update, not a background job, and the conditional increment
// is a single statement so concurrent devices can never both take the last
// quota slot.
type PostgresUsageRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUsageRepository creates a new repository.
func NewPostgresUsageRepository(pool *pgxpool.Pool) *PostgresUsageRepository {
	return &PostgresUsageRepository{pool: pool}
}

// GetOrCreate returns the counter record for the day, resetting daily
// counters when the stored day is older. The lifetime message total is
// preserved across rollovers.
func (r *PostgresUsageRepository) GetOrCreate(ctx context.Context, userID uuid.UUID, day domain.Day) (*domain.DailyUsage, error) {
	insert := `
		INSERT INTO usage_counters (
			user_id, day, messages_sent, total_messages_sent, data_imports_used,
			created_at, updated_at
		) VALUES ($1, $2, 0, 0, 0, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			day = EXCLUDED.day,
			messages_sent = 0,
			data_imports_used = 0,
			updated_at = NOW()
		WHERE usage_counters.day < EXCLUDED.day
	`
	if _, err := r.pool.Exec(ctx, insert, userID, string(day)); err != nil {
		return nil, err
	}

	query := `
		SELECT user_id, day, messages_sent, total_messages_sent, data_imports_used
		FROM usage_counters
		WHERE user_id = $1
	`
	usage := &domain.DailyUsage{}
	var dayStr string
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&usage.UserID,
		&dayStr,
		&usage.MessagesSent,
		&usage.TotalMessagesSent,
		&usage.DataImportsUsed,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	usage.Day = domain.Day(dayStr)
	return usage, nil
}

// IncrementIfBelow atomically increments the field while it is below limit.
// A non-positive limit means unmetered. The check and the increment are one
// statement: at most `limit` increments can ever succeed for a day.
func (r *PostgresUsageRepository) IncrementIfBelow(ctx context.Context, userID uuid.UUID, day domain.Day, field domain.UsageField, limit int) (int, error) {
	var query string
	switch field {
	case domain.FieldMessagesSent:
		query = `
			UPDATE usage_counters
			SET messages_sent = messages_sent + 1,
			    total_messages_sent = total_messages_sent + 1,
			    updated_at = NOW()
			WHERE user_id = $1 AND day = $2 AND ($3 <= 0 OR messages_sent < $3)
			RETURNING messages_sent
		`
	case domain.FieldDataImportsUsed:
		query = `
			UPDATE usage_counters
			SET data_imports_used = data_imports_used + 1,
			    updated_at = NOW()
			WHERE user_id = $1 AND day = $2 AND ($3 <= 0 OR data_imports_used < $3)
			RETURNING data_imports_used
		`
	default:
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
	}

	var newCount int
	err := r.pool.QueryRow(ctx, query, userID, string(day), limit).Scan(&newCount)
	if err != nil {
		if database.IsNoRows(err) {
			// Either the limit is consumed or the row rolled to a newer day
			// under us. Both deny this increment.
			return 0, domain.ErrConflict
		}
		return 0, err
	}
	return newCount, nil
}

var _ domain.UsageRepository = (*PostgresUsageRepository)(nil)
