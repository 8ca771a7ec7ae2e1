package domain

import (
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/fernhq/fern/internal/shared/domain"
)

// RoutingKeyLimitReached is published when a quota denial occurs, so the
// upgrade funnel can react without polling.
const RoutingKeyLimitReached = "entitlement.limit_reached"

// LimitReached signals that a gated action was denied on quota grounds.
type LimitReached struct {
	sharedDomain.BaseEvent
	UserID  uuid.UUID
	Action  Action
	Trigger TriggerCode
}

// NewLimitReached creates the event for a quota denial.
func NewLimitReached(userID uuid.UUID, action Action, trigger TriggerCode) *LimitReached {
	return &LimitReached{
		BaseEvent: sharedDomain.NewBaseEvent(userID, "entitlement", RoutingKeyLimitReached),
		UserID:    userID,
		Action:    action,
		Trigger:   trigger,
	}
}

// LimitReachedPayload is the wire form carried on the event bus.
type LimitReachedPayload struct {
	UserID     uuid.UUID   `json:"user_id"`
	Action     Action      `json:"action"`
	Trigger    TriggerCode `json:"trigger"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Payload returns the wire form of the event.
func (e *LimitReached) Payload() LimitReachedPayload {
	return LimitReachedPayload{
		UserID:     e.UserID,
		Action:     e.Action,
		Trigger:    e.Trigger,
		OccurredAt: e.OccurredAt(),
	}
}
