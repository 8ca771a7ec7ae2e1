package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/fernhq/fern/internal/billing/domain"
	"github.com/fernhq/fern/internal/shared/infrastructure/database"
)

// SQLiteSubscriptionRepository implements SubscriptionRepository with SQLite.
// It backs the device-local projection used when the app runs offline.
type SQLiteSubscriptionRepository struct {
	dbConn *sql.DB
}

// NewSQLiteSubscriptionRepository creates a new repository.
func NewSQLiteSubscriptionRepository(dbConn *sql.DB) *SQLiteSubscriptionRepository {
	return &SQLiteSubscriptionRepository{dbConn: dbConn}
}

// Upsert inserts or updates a subscription.
func (r *SQLiteSubscriptionRepository) Upsert(ctx context.Context, subscription *domain.Subscription) error {
	var currentPeriodEnd sql.NullString
	if subscription.CurrentPeriodEnd != nil {
		currentPeriodEnd = sql.NullString{
			String: subscription.CurrentPeriodEnd.UTC().Format(time.RFC3339),
			Valid:  true,
		}
	}

	query := `
		INSERT INTO subscriptions (
			id, user_id, plan, status, trial_start, trial_end,
			current_period_end, stripe_customer_id, stripe_subscription_id,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			plan = excluded.plan,
			status = excluded.status,
			current_period_end = excluded.current_period_end,
			stripe_customer_id = excluded.stripe_customer_id,
			stripe_subscription_id = excluded.stripe_subscription_id,
			updated_at = excluded.updated_at
	`
	_, err := r.dbConn.ExecContext(ctx, query,
		subscription.ID.String(),
		subscription.UserID.String(),
		string(subscription.Plan),
		string(subscription.Status),
		subscription.TrialStart.UTC().Format(time.RFC3339),
		subscription.TrialEnd.UTC().Format(time.RFC3339),
		currentPeriodEnd,
		subscription.StripeCustomerID,
		subscription.StripeSubscriptionID,
		subscription.CreatedAt.UTC().Format(time.RFC3339),
		subscription.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// FindByUserID returns the subscription for a user.
func (r *SQLiteSubscriptionRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	query := `
		SELECT id, user_id, plan, status, trial_start, trial_end,
		       current_period_end, stripe_customer_id, stripe_subscription_id,
		       created_at, updated_at
		FROM subscriptions
		WHERE user_id = ?
	`
	var (
		idStr                string
		userIDStr            string
		plan                 string
		status               string
		trialStart           string
		trialEnd             string
		currentPeriodEnd     sql.NullString
		stripeCustomerID     string
		stripeSubscriptionID string
		createdAt            string
		updatedAt            string
	)

	err := r.dbConn.QueryRowContext(ctx, query, userID.String()).Scan(
		&idStr,
		&userIDStr,
		&plan,
		&status,
		&trialStart,
		&trialEnd,
		&currentPeriodEnd,
		&stripeCustomerID,
		&stripeSubscriptionID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, err
	}

	sub := &domain.Subscription{
		Plan:                 domain.Plan(plan),
		Status:               domain.Status(status),
		StripeCustomerID:     stripeCustomerID,
		StripeSubscriptionID: stripeSubscriptionID,
	}
	sub.ID, _ = uuid.Parse(idStr)
	sub.UserID, _ = uuid.Parse(userIDStr)
	sub.TrialStart, _ = time.Parse(time.RFC3339, trialStart)
	sub.TrialEnd, _ = time.Parse(time.RFC3339, trialEnd)
	sub.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	sub.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if currentPeriodEnd.Valid {
		if t, err := time.Parse(time.RFC3339, currentPeriodEnd.String); err == nil {
			sub.CurrentPeriodEnd = &t
		}
	}

	return sub, nil
}

var _ domain.SubscriptionRepository = (*SQLiteSubscriptionRepository)(nil)
