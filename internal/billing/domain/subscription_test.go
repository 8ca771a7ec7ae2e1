package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

func TestNewTrialSubscription(t *testing.T) {
	userID := uuid.New()
	sub := NewTrialSubscription(userID, now)

	assert.NotEqual(t, uuid.Nil, sub.ID)
	assert.Equal(t, userID, sub.UserID)
	assert.Equal(t, PlanTrial, sub.Plan)
	assert.Equal(t, StatusActive, sub.Status)
	assert.Equal(t, now, sub.TrialStart)
	assert.Equal(t, now.Add(TrialDuration), sub.TrialEnd)
}

func TestAccessState_Trial(t *testing.T) {
	sub := NewTrialSubscription(uuid.New(), now)

	assert.Equal(t, AccessTrial, sub.AccessState(now))
	assert.Equal(t, AccessTrial, sub.AccessState(sub.TrialEnd), "last instant is still trial")
	assert.Equal(t, AccessExpired, sub.AccessState(sub.TrialEnd.Add(time.Second)))
}

func TestAccessState_NilSubscription(t *testing.T) {
	var sub *Subscription
	assert.Equal(t, AccessExpired, sub.AccessState(now))
}

func TestUpgrade(t *testing.T) {
	sub := NewTrialSubscription(uuid.New(), now)
	periodEnd := now.Add(30 * 24 * time.Hour)

	sub.Upgrade("cus_123", "sub_456", &periodEnd, now)

	assert.Equal(t, PlanPremium, sub.Plan)
	assert.Equal(t, StatusActive, sub.Status)
	assert.Equal(t, "cus_123", sub.StripeCustomerID)
	assert.Equal(t, "sub_456", sub.StripeSubscriptionID)
	assert.Equal(t, AccessPremium, sub.AccessState(now))
}

func TestUpgrade_AfterExpiry(t *testing.T) {
	sub := NewTrialSubscription(uuid.New(), now)
	later := sub.TrialEnd.Add(48 * time.Hour)
	require.Equal(t, AccessExpired, sub.AccessState(later))

	sub.Upgrade("cus_123", "sub_456", nil, later)
	assert.Equal(t, AccessPremium, sub.AccessState(later))
}

func TestCancel_KeepsAccessUntilPeriodEnd(t *testing.T) {
	sub := NewTrialSubscription(uuid.New(), now)
	periodEnd := now.Add(30 * 24 * time.Hour)
	sub.Upgrade("cus_123", "sub_456", &periodEnd, now)

	require.NoError(t, sub.Cancel(&periodEnd, now))
	assert.Equal(t, StatusCanceled, sub.Status)
	assert.Equal(t, AccessPremium, sub.AccessState(periodEnd.Add(-time.Hour)))
	assert.Equal(t, AccessExpired, sub.AccessState(periodEnd))
}

func TestCancel_TrialIsInvalid(t *testing.T) {
	sub := NewTrialSubscription(uuid.New(), now)
	assert.ErrorIs(t, sub.Cancel(nil, now), ErrInvalidTransition)
}

func TestMarkPastDue(t *testing.T) {
	sub := NewTrialSubscription(uuid.New(), now)
	sub.Upgrade("cus_123", "sub_456", nil, now)

	require.NoError(t, sub.MarkPastDue(now))
	assert.Equal(t, StatusPastDue, sub.Status)
	assert.Equal(t, AccessExpired, sub.AccessState(now), "past due withholds access")

	sub.Upgrade("", "", nil, now)
	assert.Equal(t, AccessPremium, sub.AccessState(now), "recovery restores access")
	assert.Equal(t, "cus_123", sub.StripeCustomerID, "provider IDs survive recovery")
}

func TestMarkPastDue_TrialIsInvalid(t *testing.T) {
	sub := NewTrialSubscription(uuid.New(), now)
	assert.ErrorIs(t, sub.MarkPastDue(now), ErrInvalidTransition)
}

func TestPlanAndStatusValidation(t *testing.T) {
	assert.True(t, PlanTrial.IsValid())
	assert.True(t, PlanPremium.IsValid())
	assert.False(t, Plan("enterprise").IsValid())

	assert.True(t, StatusActive.IsValid())
	assert.True(t, StatusCanceled.IsValid())
	assert.True(t, StatusPastDue.IsValid())
	assert.False(t, Status("paused").IsValid())
}
