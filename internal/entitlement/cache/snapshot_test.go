package cache

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	billingDomain "github.com/fernhq/fern/internal/billing/domain"
	"github.com/fernhq/fern/internal/entitlement/domain"
)

var fetchedAt = time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

func trialSnapshot(messages, imports int) Snapshot {
	sub := billingDomain.NewTrialSubscription(uuid.New(), fetchedAt)
	usage := &domain.DailyUsage{
		UserID:          sub.UserID,
		Day:             domain.DayOf(fetchedAt),
		MessagesSent:    messages,
		DataImportsUsed: imports,
	}
	return NewSnapshot(sub, usage, fetchedAt)
}

func TestHint_EmptyCacheMisses(t *testing.T) {
	c := NewCache(5 * time.Minute)

	_, err := c.Hint(fetchedAt, domain.ActionSendMessage, domain.Params{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHint_FreshSnapshotAllows(t *testing.T) {
	c := NewCache(5 * time.Minute)
	c.Put(trialSnapshot(3, 0))

	decision, err := c.Hint(fetchedAt.Add(time.Minute), domain.ActionSendMessage, domain.Params{})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestHint_StaleAfterTTL(t *testing.T) {
	c := NewCache(5 * time.Minute)
	c.Put(trialSnapshot(3, 0))

	decision, err := c.Hint(fetchedAt.Add(6*time.Minute), domain.ActionSendMessage, domain.Params{})
	assert.ErrorIs(t, err, domain.ErrStale)
	assert.True(t, decision.Allowed, "a stale hint still carries the best-known answer")
}

func TestHint_StaleAfterDayCrossed(t *testing.T) {
	// TTL generous enough that only the day boundary can invalidate.
	c := NewCache(48 * time.Hour)
	c.Put(trialSnapshot(domain.TrialDailyMessageLimit, 0))

	nextDay := fetchedAt.Add(24 * time.Hour)
	_, err := c.Hint(nextDay, domain.ActionSendMessage, domain.Params{})
	assert.ErrorIs(t, err, domain.ErrStale,
		"yesterday's counters must not gate today")
}

func TestNeedsRefresh(t *testing.T) {
	c := NewCache(5 * time.Minute)
	assert.True(t, c.NeedsRefresh(fetchedAt), "empty cache needs a fetch")

	c.Put(trialSnapshot(0, 0))
	assert.False(t, c.NeedsRefresh(fetchedAt.Add(time.Minute)))
	assert.True(t, c.NeedsRefresh(fetchedAt.Add(10*time.Minute)))
	assert.True(t, c.NeedsRefresh(fetchedAt.Add(24*time.Hour)))
}

func TestApplyOptimistic(t *testing.T) {
	c := NewCache(5 * time.Minute)
	c.Put(trialSnapshot(domain.TrialDailyMessageLimit-1, 0))

	decision, err := c.Hint(fetchedAt, domain.ActionSendMessage, domain.Params{})
	require.NoError(t, err)
	require.True(t, decision.Allowed)

	c.ApplyOptimistic(domain.ActionSendMessage)

	decision, err = c.Hint(fetchedAt, domain.ActionSendMessage, domain.Params{})
	require.NoError(t, err)
	assert.False(t, decision.Allowed, "optimistic bump keeps the local quota honest")
	assert.Equal(t, domain.TriggerMessageLimit, decision.TriggerCode)

	c.ApplyOptimistic(domain.ActionImportData)
	decision, err = c.Hint(fetchedAt, domain.ActionImportData, domain.Params{})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestApplyOptimistic_EmptyCacheIsNoop(t *testing.T) {
	c := NewCache(5 * time.Minute)
	c.ApplyOptimistic(domain.ActionSendMessage)

	_, err := c.Hint(fetchedAt, domain.ActionSendMessage, domain.Params{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReconcile_ServerDenyInvalidates(t *testing.T) {
	c := NewCache(5 * time.Minute)
	c.Put(trialSnapshot(0, 0))

	local := domain.Decision{Allowed: true}
	server := domain.Decision{Allowed: false, TriggerCode: domain.TriggerMessageLimit}
	c.Reconcile(local, server)

	_, err := c.Hint(fetchedAt, domain.ActionSendMessage, domain.Params{})
	assert.ErrorIs(t, err, domain.ErrNotFound, "disagreement drops the snapshot")
}

func TestReconcile_AgreementKeepsSnapshot(t *testing.T) {
	c := NewCache(5 * time.Minute)
	c.Put(trialSnapshot(0, 0))

	c.Reconcile(domain.Decision{Allowed: true}, domain.Decision{Allowed: true})
	_, err := c.Hint(fetchedAt, domain.ActionSendMessage, domain.Params{})
	assert.NoError(t, err)

	// Server allowing more than the hint did is never a rollback.
	c.Reconcile(domain.Decision{Allowed: false}, domain.Decision{Allowed: true})
	_, err = c.Hint(fetchedAt, domain.ActionSendMessage, domain.Params{})
	assert.NoError(t, err)
}

func TestSnapshotDecide_MatchesServerRules(t *testing.T) {
	sub := billingDomain.NewTrialSubscription(uuid.New(), fetchedAt)
	usage := &domain.DailyUsage{
		UserID:       sub.UserID,
		Day:          domain.DayOf(fetchedAt),
		MessagesSent: 7,
	}
	snap := NewSnapshot(sub, usage, fetchedAt)

	for _, action := range domain.Actions {
		params := domain.Params{Persona: "aria"}
		local := snap.Decide(fetchedAt, action, params)
		server := domain.Decide(sub, usage, fetchedAt, action, params)
		assert.Equal(t, server, local, "hint for %s must match the server rules", action)
	}
}
