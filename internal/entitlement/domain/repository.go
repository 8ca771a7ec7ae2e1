package domain

import (
	"context"

	"github.com/google/uuid"
)

// UsageRepository defines access for daily usage counters. Implementations
// must make IncrementIfBelow a single indivisible check-and-increment:
// under any concurrency, at most `limit` increments succeed for a given
// (user, day, field).
type UsageRepository interface {
	// GetOrCreate returns the counter record for the day, creating a zeroed
	// record when the stored day differs or none exists. The lifetime
	// message total carries over; daily counters do not.
	GetOrCreate(ctx context.Context, userID uuid.UUID, day Day) (*DailyUsage, error)

	// IncrementIfBelow atomically increments the field if its current value
	// is below limit, returning the new count. Returns ErrConflict when the
	// limit is already consumed.
	IncrementIfBelow(ctx context.Context, userID uuid.UUID, day Day, field UsageField, limit int) (int, error)
}

// PromptLogRepository defines access for the append-only upgrade prompt log.
type PromptLogRepository interface {
	Append(ctx context.Context, event PromptEvent) error
	List(ctx context.Context, userID uuid.UUID) ([]PromptEvent, error)
}
