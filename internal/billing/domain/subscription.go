package domain

import (
	"time"

	"github.com/google/uuid"
)

// Plan identifies the subscription tier.
type Plan string

const (
	PlanTrial   Plan = "trial"
	PlanPremium Plan = "premium"
)

// IsValid checks if the plan is a known tier.
func (p Plan) IsValid() bool {
	return p == PlanTrial || p == PlanPremium
}

// Status represents the current billing state.
type Status string

const (
	StatusActive   Status = "active"
	StatusCanceled Status = "canceled"
	StatusPastDue  Status = "past_due"
)

// IsValid checks if the status is a known billing state.
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusCanceled || s == StatusPastDue
}

// TrialDuration is the length of the free trial window granted at signup.
const TrialDuration = 14 * 24 * time.Hour

// AccessState is the effective entitlement state derived from plan, status
// and the clock. It is computed, never stored: a trial becomes expired the
// moment now passes TrialEnd, without any record mutation.
type AccessState string

const (
	AccessTrial   AccessState = "trial"
	AccessPremium AccessState = "premium"
	AccessExpired AccessState = "expired"
)

// Subscription represents a user's subscription record.
type Subscription struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	Plan                 Plan
	Status               Status
	TrialStart           time.Time
	TrialEnd             time.Time
	StripeCustomerID     string
	StripeSubscriptionID string
	CurrentPeriodEnd     *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewTrialSubscription creates the subscription record for a new account.
// Every account starts on a fixed-length trial.
func NewTrialSubscription(userID uuid.UUID, now time.Time) *Subscription {
	now = now.UTC()
	return &Subscription{
		ID:         uuid.New(),
		UserID:     userID,
		Plan:       PlanTrial,
		Status:     StatusActive,
		TrialStart: now,
		TrialEnd:   now.Add(TrialDuration),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// AccessState derives the effective entitlement state at the given instant.
//
// Premium access survives a scheduled cancellation until the period end is
// reached; past-due subscriptions lose quota access until billing recovers.
func (s *Subscription) AccessState(now time.Time) AccessState {
	if s == nil {
		return AccessExpired
	}
	switch s.Plan {
	case PlanPremium:
		switch s.Status {
		case StatusActive:
			return AccessPremium
		case StatusCanceled:
			if s.CurrentPeriodEnd != nil && now.Before(*s.CurrentPeriodEnd) {
				return AccessPremium
			}
			return AccessExpired
		default: // past_due
			return AccessExpired
		}
	default:
		if s.Status == StatusActive && !now.After(s.TrialEnd) {
			return AccessTrial
		}
		return AccessExpired
	}
}

// Upgrade transitions the subscription to an active premium plan. Valid from
// any state: trial checkout, reactivation before period end, and
// re-subscription after expiry all land here.
func (s *Subscription) Upgrade(customerID, subscriptionID string, periodEnd *time.Time, now time.Time) {
	s.Plan = PlanPremium
	s.Status = StatusActive
	if customerID != "" {
		s.StripeCustomerID = customerID
	}
	if subscriptionID != "" {
		s.StripeSubscriptionID = subscriptionID
	}
	s.CurrentPeriodEnd = periodEnd
	s.UpdatedAt = now.UTC()
}

// Cancel schedules the premium subscription for cancellation at period end.
func (s *Subscription) Cancel(periodEnd *time.Time, now time.Time) error {
	if s.Plan != PlanPremium {
		return ErrInvalidTransition
	}
	s.Status = StatusCanceled
	if periodEnd != nil {
		s.CurrentPeriodEnd = periodEnd
	}
	s.UpdatedAt = now.UTC()
	return nil
}

// MarkPastDue records a failed payment. Quota access is withheld until the
// billing provider reports recovery.
func (s *Subscription) MarkPastDue(now time.Time) error {
	if s.Plan != PlanPremium {
		return ErrInvalidTransition
	}
	s.Status = StatusPastDue
	s.UpdatedAt = now.UTC()
	return nil
}
