package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fernhq/fern/internal/billing/domain"
	"github.com/fernhq/fern/internal/shared/infrastructure/eventbus"
)

// WebhookEvent is the normalized form of a billing provider event. The
// payment provider's checkout and webhook transport live outside this
// engine; by the time an event reaches here it has been authenticated.
type WebhookEvent struct {
	Type           string     `json:"type"`
	UserID         uuid.UUID  `json:"user_id"`
	CustomerID     string     `json:"customer_id,omitempty"`
	SubscriptionID string     `json:"subscription_id,omitempty"`
	PeriodEnd      *time.Time `json:"period_end,omitempty"`
}

// Billing event types this engine reacts to.
const (
	EventCheckoutCompleted       = "checkout.completed"
	EventSubscriptionCanceled    = "subscription.canceled"
	EventSubscriptionReactivated = "subscription.reactivated"
	EventPaymentFailed           = "invoice.payment_failed"
	EventPaymentRecovered        = "invoice.paid"
)

// Service applies billing provider events to subscription records. It is
// the only component that mutates plan and status; the entitlement engine
// itself never initiates a plan change.
type Service struct {
	subscriptions domain.SubscriptionRepository
	publisher     eventbus.Publisher
	logger        *slog.Logger
}

// NewService creates a new billing service.
func NewService(subscriptions domain.SubscriptionRepository, publisher eventbus.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = eventbus.NewNoopPublisher(logger)
	}
	return &Service{subscriptions: subscriptions, publisher: publisher, logger: logger}
}

// GetSubscription returns the user's subscription record. Repositories
// normalize missing rows to domain.ErrSubscriptionNotFound.
func (s *Service) GetSubscription(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	return s.subscriptions.FindByUserID(ctx, userID)
}

// SetSubscriptionPlan force-sets plan and status for a user, creating the
// record if none exists. This is the collaborator entry point billing
// webhook receivers call on payment events.
func (s *Service) SetSubscriptionPlan(ctx context.Context, userID uuid.UUID, plan domain.Plan, status domain.Status, periodEnd *time.Time) (*domain.Subscription, error) {
	if !plan.IsValid() {
		return nil, fmt.Errorf("%w: plan %q", domain.ErrInvalidTransition, plan)
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: status %q", domain.ErrInvalidTransition, status)
	}

	now := time.Now().UTC()
	sub, err := s.GetSubscription(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrSubscriptionNotFound) {
			return nil, err
		}
		sub = domain.NewTrialSubscription(userID, now)
	}

	sub.Plan = plan
	sub.Status = status
	sub.CurrentPeriodEnd = periodEnd
	sub.UpdatedAt = now

	return sub, s.saveAndPublish(ctx, sub)
}

// ProcessEvent applies a normalized billing provider event through the
// subscription state machine.
func (s *Service) ProcessEvent(ctx context.Context, event WebhookEvent) (*domain.Subscription, error) {
	now := time.Now().UTC()

	sub, err := s.GetSubscription(ctx, event.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrSubscriptionNotFound) {
			return nil, err
		}
		// First billing event for an unknown user bootstraps the record.
		sub = domain.NewTrialSubscription(event.UserID, now)
	}

	switch event.Type {
	case EventCheckoutCompleted, EventSubscriptionReactivated, EventPaymentRecovered:
		sub.Upgrade(event.CustomerID, event.SubscriptionID, event.PeriodEnd, now)
	case EventSubscriptionCanceled:
		if err := sub.Cancel(event.PeriodEnd, now); err != nil {
			return nil, err
		}
	case EventPaymentFailed:
		if err := sub.MarkPastDue(now); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownBillingEvent, event.Type)
	}

	if err := s.saveAndPublish(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info("billing event applied",
		"event_type", event.Type,
		"user_id", event.UserID,
		"plan", sub.Plan,
		"status", sub.Status,
	)

	return sub, nil
}

func (s *Service) saveAndPublish(ctx context.Context, sub *domain.Subscription) error {
	if err := s.subscriptions.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("failed to persist subscription: %w", err)
	}

	event := domain.NewSubscriptionChanged(sub)
	if err := eventbus.PublishDomainEvent(ctx, s.publisher, event, event.Payload()); err != nil {
		// The record is persisted; a lost event only delays cache refresh.
		s.logger.Warn("failed to publish subscription change",
			"user_id", sub.UserID,
			"error", err,
		)
	}
	return nil
}
