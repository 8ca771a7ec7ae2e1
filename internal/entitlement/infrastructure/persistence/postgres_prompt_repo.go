package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fernhq/fern/internal/entitlement/domain"
)

// PostgresPromptLogRepository implements PromptLogRepository with
// PostgreSQL. The log is append-only; rows are never updated or deleted.
type PostgresPromptLogRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresPromptLogRepository creates a new repository.
func NewPostgresPromptLogRepository(pool *pgxpool.Pool) *PostgresPromptLogRepository {
	return &PostgresPromptLogRepository{pool: pool}
}

// Append records a surfaced prompt. The unique index on
// (user_id, trigger_code, day_shown) makes duplicate suppression hold even
// across racing instances; a duplicate insert is silently dropped.
func (r *PostgresPromptLogRepository) Append(ctx context.Context, event domain.PromptEvent) error {
	query := `
		INSERT INTO upgrade_prompts (user_id, trigger_code, day_shown, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, trigger_code, day_shown) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query,
		event.UserID,
		string(event.Trigger),
		event.DayShown,
		event.CreatedAt,
	)
	return err
}

// List returns all prompts ever shown to the user.
func (r *PostgresPromptLogRepository) List(ctx context.Context, userID uuid.UUID) ([]domain.PromptEvent, error) {
	query := `
		SELECT user_id, trigger_code, day_shown, created_at
		FROM upgrade_prompts
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]domain.PromptEvent, 0)
	for rows.Next() {
		var (
			event   domain.PromptEvent
			trigger string
		)
		if err := rows.Scan(&event.UserID, &trigger, &event.DayShown, &event.CreatedAt); err != nil {
			return nil, err
		}
		event.Trigger = domain.TriggerCode(trigger)
		events = append(events, event)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}

var _ domain.PromptLogRepository = (*PostgresPromptLogRepository)(nil)
