package persistence

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/fernhq/fern/internal/entitlement/domain"
)

// MemoryUsageRepository implements UsageRepository in memory. Used in
// development mode and tests; a single mutex models the per-user critical
// section the SQL repositories get from their conditional updates.
type MemoryUsageRepository struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.DailyUsage
}

// NewMemoryUsageRepository creates an empty in-memory repository.
func NewMemoryUsageRepository() *MemoryUsageRepository {
	return &MemoryUsageRepository{records: make(map[uuid.UUID]*domain.DailyUsage)}
}

// GetOrCreate returns a copy of the counter record for the day, resetting
// daily counters when the stored day is older.
func (r *MemoryUsageRepository) GetOrCreate(ctx context.Context, userID uuid.UUID, day domain.Day) (*domain.DailyUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record := r.rollover(userID, day)
	copied := *record
	return &copied, nil
}

// IncrementIfBelow atomically increments the field while it is below limit.
// A non-positive limit means unmetered.
func (r *MemoryUsageRepository) IncrementIfBelow(ctx context.Context, userID uuid.UUID, day domain.Day, field domain.UsageField, limit int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record := r.rollover(userID, day)
	if record.Day != day {
		// Stored day is already newer than the request's day.
		return 0, domain.ErrConflict
	}

	switch field {
	case domain.FieldMessagesSent:
		if limit > 0 && record.MessagesSent >= limit {
			return 0, domain.ErrConflict
		}
		record.MessagesSent++
		record.TotalMessagesSent++
		return record.MessagesSent, nil
	case domain.FieldDataImportsUsed:
		if limit > 0 && record.DataImportsUsed >= limit {
			return 0, domain.ErrConflict
		}
		record.DataImportsUsed++
		return record.DataImportsUsed, nil
	default:
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
	}
}

// rollover returns the stored record, superseding it when day advanced.
// Caller must hold the mutex.
func (r *MemoryUsageRepository) rollover(userID uuid.UUID, day domain.Day) *domain.DailyUsage {
	record, ok := r.records[userID]
	if !ok {
		record = domain.NewDailyUsage(userID, day, 0)
		r.records[userID] = record
		return record
	}
	if record.Day.Before(day) {
		record = domain.NewDailyUsage(userID, day, record.TotalMessagesSent)
		r.records[userID] = record
	}
	return record
}

var _ domain.UsageRepository = (*MemoryUsageRepository)(nil)

// MemoryPromptLogRepository implements PromptLogRepository in memory.
type MemoryPromptLogRepository struct {
	mu     sync.Mutex
	events map[uuid.UUID][]domain.PromptEvent
}

// NewMemoryPromptLogRepository creates an empty in-memory prompt log.
func NewMemoryPromptLogRepository() *MemoryPromptLogRepository {
	return &MemoryPromptLogRepository{events: make(map[uuid.UUID][]domain.PromptEvent)}
}

// Append records a surfaced prompt, dropping exact duplicates.
func (r *MemoryPromptLogRepository) Append(ctx context.Context, event domain.PromptEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.events[event.UserID] {
		if existing.Trigger == event.Trigger && existing.DayShown == event.DayShown {
			return nil
		}
	}
	r.events[event.UserID] = append(r.events[event.UserID], event)
	return nil
}

// List returns all prompts ever shown to the user.
func (r *MemoryPromptLogRepository) List(ctx context.Context, userID uuid.UUID) ([]domain.PromptEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := make([]domain.PromptEvent, len(r.events[userID]))
	copy(events, r.events[userID])
	return events, nil
}

var _ domain.PromptLogRepository = (*MemoryPromptLogRepository)(nil)
