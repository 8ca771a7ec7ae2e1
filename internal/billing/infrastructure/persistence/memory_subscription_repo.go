package persistence

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/fernhq/fern/internal/billing/domain"
)

// MemorySubscriptionRepository implements SubscriptionRepository in
// memory. Used in development mode and tests.
type MemorySubscriptionRepository struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*domain.Subscription
}

// NewMemorySubscriptionRepository creates an empty in-memory repository.
func NewMemorySubscriptionRepository() *MemorySubscriptionRepository {
	return &MemorySubscriptionRepository{subs: make(map[uuid.UUID]*domain.Subscription)}
}

// Upsert stores the subscription keyed by user.
func (r *MemorySubscriptionRepository) Upsert(ctx context.Context, sub *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *sub
	r.subs[sub.UserID] = &copied
	return nil
}

// FindByUserID returns a copy of the user's subscription.
func (r *MemorySubscriptionRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.subs[userID]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound
	}
	copied := *sub
	return &copied, nil
}

var _ domain.SubscriptionRepository = (*MemorySubscriptionRepository)(nil)
