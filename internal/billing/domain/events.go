package domain

import (
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/fernhq/fern/internal/shared/domain"
)

// RoutingKeySubscriptionChanged is published whenever a billing event
// mutates a subscription record.
const RoutingKeySubscriptionChanged = "billing.subscription.changed"

// SubscriptionChanged signals that a user's plan or status changed and any
// cached entitlement inputs for that user are stale.
type SubscriptionChanged struct {
	sharedDomain.BaseEvent
	UserID uuid.UUID
	Plan   Plan
	Status Status
}

// NewSubscriptionChanged creates the event for an updated subscription.
func NewSubscriptionChanged(sub *Subscription) *SubscriptionChanged {
	return &SubscriptionChanged{
		BaseEvent: sharedDomain.NewBaseEvent(sub.ID, "subscription", RoutingKeySubscriptionChanged),
		UserID:    sub.UserID,
		Plan:      sub.Plan,
		Status:    sub.Status,
	}
}

// SubscriptionChangedPayload is the wire form carried on the event bus.
type SubscriptionChangedPayload struct {
	UserID    uuid.UUID `json:"user_id"`
	Plan      Plan      `json:"plan"`
	Status    Status    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
}

// Payload returns the wire form of the event.
func (e *SubscriptionChanged) Payload() SubscriptionChangedPayload {
	return SubscriptionChangedPayload{
		UserID:    e.UserID,
		Plan:      e.Plan,
		Status:    e.Status,
		ChangedAt: e.OccurredAt(),
	}
}
