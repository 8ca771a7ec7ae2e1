package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/fernhq/fern/internal/entitlement/domain"
)

// SQLitePromptLogRepository implements PromptLogRepository with SQLite
// for the device-local projection.
type SQLitePromptLogRepository struct {
	dbConn *sql.DB
}

// NewSQLitePromptLogRepository creates a new repository.
func NewSQLitePromptLogRepository(dbConn *sql.DB) *SQLitePromptLogRepository {
	return &SQLitePromptLogRepository{dbConn: dbConn}
}

// Append records a surfaced prompt, dropping duplicates on
// (user_id, trigger_code, day_shown).
func (r *SQLitePromptLogRepository) Append(ctx context.Context, event domain.PromptEvent) error {
	query := `
		INSERT INTO upgrade_prompts (user_id, trigger_code, day_shown, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, trigger_code, day_shown) DO NOTHING
	`
	_, err := r.dbConn.ExecContext(ctx, query,
		event.UserID.String(),
		string(event.Trigger),
		event.DayShown,
		event.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// List returns all prompts ever shown to the user.
func (r *SQLitePromptLogRepository) List(ctx context.Context, userID uuid.UUID) ([]domain.PromptEvent, error) {
	query := `
		SELECT user_id, trigger_code, day_shown, created_at
		FROM upgrade_prompts
		WHERE user_id = ?
		ORDER BY created_at
	`
	rows, err := r.dbConn.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]domain.PromptEvent, 0)
	for rows.Next() {
		var (
			event     domain.PromptEvent
			userIDStr string
			trigger   string
			createdAt string
		)
		if err := rows.Scan(&userIDStr, &trigger, &event.DayShown, &createdAt); err != nil {
			return nil, err
		}
		event.UserID, _ = uuid.Parse(userIDStr)
		event.Trigger = domain.TriggerCode(trigger)
		event.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		events = append(events, event)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}

var _ domain.PromptLogRepository = (*SQLitePromptLogRepository)(nil)
