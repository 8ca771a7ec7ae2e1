package subscribers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	billingDomain "github.com/fernhq/fern/internal/billing/domain"
	"github.com/fernhq/fern/internal/shared/infrastructure/eventbus"
)

// SnapshotInvalidator drops a user's cached entitlement snapshot.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// SubscriptionSubscriber listens for subscription changes and invalidates
// the affected user's entitlement snapshot, so devices refetch decision
// inputs instead of gating on a superseded plan.
type SubscriptionSubscriber struct {
	snapshots SnapshotInvalidator
	logger    *slog.Logger
}

// NewSubscriptionSubscriber creates a new subscriber.
func NewSubscriptionSubscriber(snapshots SnapshotInvalidator, logger *slog.Logger) *SubscriptionSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubscriptionSubscriber{snapshots: snapshots, logger: logger}
}

// EventTypes returns the routing keys this subscriber handles.
func (s *SubscriptionSubscriber) EventTypes() []string {
	return []string{billingDomain.RoutingKeySubscriptionChanged}
}

// Handle invalidates the snapshot for the changed subscription's user.
func (s *SubscriptionSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload billingDomain.SubscriptionChangedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		s.logger.Error("failed to unmarshal subscription change",
			"event_id", event.EventID,
			"error", err,
		)
		// Malformed payloads are dropped, not retried.
		return nil
	}

	if err := s.snapshots.Invalidate(ctx, payload.UserID); err != nil {
		return err
	}

	s.logger.Info("entitlement snapshot invalidated",
		"user_id", payload.UserID,
		"plan", payload.Plan,
		"status", payload.Status,
	)
	return nil
}

var _ eventbus.EventConsumer = (*SubscriptionSubscriber)(nil)
