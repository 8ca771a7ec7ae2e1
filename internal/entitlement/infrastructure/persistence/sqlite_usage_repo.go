package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fernhq/fern/internal/entitlement/domain"
	"github.com/fernhq/fern/internal/shared/infrastructure/database"
)

// SQLiteUsageRepository implements UsageRepository with SQLite. It backs
// the device-local projection; the serialized writer of SQLite gives the
// same at-most-limit guarantee the Postgres conditional update does.
type SQLiteUsageRepository struct {
	dbConn *sql.DB
}

// NewSQLiteUsageRepository creates a new repository.
func NewSQLiteUsageRepository(dbConn *sql.DB) *SQLiteUsageRepository {
	return &SQLiteUsageRepository{dbConn: dbConn}
}

// GetOrCreate returns the counter record for the day, resetting daily
// counters when the stored day is older.
func (r *SQLiteUsageRepository) GetOrCreate(ctx context.Context, userID uuid.UUID, day domain.Day) (*domain.DailyUsage, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	insert := `
		INSERT INTO usage_counters (
			user_id, day, messages_sent, total_messages_sent, data_imports_used,
			created_at, updated_at
		) VALUES (?, ?, 0, 0, 0, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			day = excluded.day,
			messages_sent = 0,
			data_imports_used = 0,
			updated_at = excluded.updated_at
		WHERE usage_counters.day < excluded.day
	`
	if _, err := r.dbConn.ExecContext(ctx, insert, userID.String(), string(day), now, now); err != nil {
		return nil, err
	}

	query := `
		SELECT user_id, day, messages_sent, total_messages_sent, data_imports_used
		FROM usage_counters
		WHERE user_id = ?
	`
	var (
		userIDStr string
		dayStr    string
		usage     domain.DailyUsage
	)
	err := r.dbConn.QueryRowContext(ctx, query, userID.String()).Scan(
		&userIDStr,
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
	usage.UserID, _ = uuid.Parse(userIDStr)
	usage.Day = domain.Day(dayStr)
	return &usage, nil
}

// IncrementIfBelow atomically increments the field while it is below limit.
// A non-positive limit means unmetered.
func (r *SQLiteUsageRepository) IncrementIfBelow(ctx context.Context, userID uuid.UUID, day domain.Day, field domain.UsageField, limit int) (int, error) {
	var query string
	switch field {
	case domain.FieldMessagesSent:
		query = `
			UPDATE usage_counters
			SET messages_sent = messages_sent + 1,
			    total_messages_sent = total_messages_sent + 1,
			    updated_at = ?
			WHERE user_id = ? AND day = ? AND (? <= 0 OR messages_sent < ?)
			RETURNING messages_sent
		`
	case domain.FieldDataImportsUsed:
		query = `
			UPDATE usage_counters
			SET data_imports_used = data_imports_used + 1,
			    updated_at = ?
			WHERE user_id = ? AND day = ? AND (? <= 0 OR data_imports_used < ?)
			RETURNING data_imports_used
		`
	default:
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	var newCount int
	err := r.dbConn.QueryRowContext(ctx, query, now, userID.String(), string(day), limit, limit).Scan(&newCount)
	if err != nil {
		if database.IsNoRows(err) {
			return 0, domain.ErrConflict
		}
		return 0, err
	}
	return newCount, nil
}

var _ domain.UsageRepository = (*SQLiteUsageRepository)(nil)
