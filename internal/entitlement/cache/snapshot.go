// Package cache holds the client-side projection of entitlement decision
// inputs. The projection renders instant UI affordances; it is always
// subordinate to server decisions and every mutating action is re-validated
// server-side regardless of what the local hint said.
package cache

import (
	"sync"
	"time"

	"github.com/google/uuid"

	billingDomain "github.com/fernhq/fern/internal/billing/domain"
	"github.com/fernhq/fern/internal/entitlement/domain"
)

// Snapshot is the last server-confirmed set of decision inputs. It carries
// everything the pure rules table needs, so a device can evaluate hints
// with the exact same function the server enforces with.
type Snapshot struct {
	UserID            uuid.UUID            `json:"user_id"`
	Plan              billingDomain.Plan   `json:"plan"`
	Status            billingDomain.Status `json:"status"`
	TrialStart        time.Time            `json:"trial_start"`
	TrialEnd          time.Time            `json:"trial_end"`
	CurrentPeriodEnd  *time.Time           `json:"current_period_end,omitempty"`
	Day               domain.Day           `json:"day"`
	MessagesSent      int                  `json:"messages_sent"`
	TotalMessagesSent int                  `json:"total_messages_sent"`
	DataImportsUsed   int                  `json:"data_imports_used"`
	FetchedAt         time.Time            `json:"fetched_at"`
}

// NewSnapshot projects server state into a snapshot.
func NewSnapshot(sub *billingDomain.Subscription, usage *domain.DailyUsage, now time.Time) Snapshot {
	return Snapshot{
		UserID:            sub.UserID,
		Plan:              sub.Plan,
		Status:            sub.Status,
		TrialStart:        sub.TrialStart,
		TrialEnd:          sub.TrialEnd,
		CurrentPeriodEnd:  sub.CurrentPeriodEnd,
		Day:               usage.Day,
		MessagesSent:      usage.MessagesSent,
		TotalMessagesSent: usage.TotalMessagesSent,
		DataImportsUsed:   usage.DataImportsUsed,
		FetchedAt:         now.UTC(),
	}
}

// Decide evaluates a hint locally from the snapshot, through the same pure
// rules table the server uses. Same inputs, same answer.
func (s Snapshot) Decide(now time.Time, action domain.Action, params domain.Params) domain.Decision {
	sub := &billingDomain.Subscription{
		UserID:           s.UserID,
		Plan:             s.Plan,
		Status:           s.Status,
		TrialStart:       s.TrialStart,
		TrialEnd:         s.TrialEnd,
		CurrentPeriodEnd: s.CurrentPeriodEnd,
	}
	usage := &domain.DailyUsage{
		UserID:            s.UserID,
		Day:               s.Day,
		MessagesSent:      s.MessagesSent,
		TotalMessagesSent: s.TotalMessagesSent,
		DataImportsUsed:   s.DataImportsUsed,
	}
	return domain.Decide(sub, usage, now.UTC(), action, params)
}

// Stale reports whether the snapshot is older than ttl.
func (s Snapshot) Stale(now time.Time, ttl time.Duration) bool {
	return now.UTC().Sub(s.FetchedAt) > ttl
}

// DayCrossed reports whether the UTC day boundary has passed since the
// snapshot was fetched. Counters in the snapshot belong to the old day and
// must not gate the new one.
func (s Snapshot) DayCrossed(now time.Time) bool {
	return s.Day.Before(domain.DayOf(now))
}

// Cache is the device-local holder of the current snapshot.
type Cache struct {
	mu   sync.RWMutex
	snap *Snapshot
	ttl  time.Duration
}

// NewCache creates an empty cache with the given staleness TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl}
}

// Put replaces the cached snapshot with a fresh server-confirmed one.
func (c *Cache) Put(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = &snap
}

// Hint evaluates an action locally for immediate UI feedback.
//
// Returns ErrNotFound when no snapshot is held and ErrStale when the
// snapshot is too old or the day boundary has crossed; in both cases the
// caller must refresh from the server before trusting an allow. A stale
// snapshot may still back a visibly-degraded read-only hint; it must never
// back an optimistic mutation.
func (c *Cache) Hint(now time.Time, action domain.Action, params domain.Params) (domain.Decision, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snap == nil {
		return domain.Decision{}, domain.ErrNotFound
	}
	decision := c.snap.Decide(now, action, params)
	if c.snap.Stale(now, c.ttl) || c.snap.DayCrossed(now) {
		return decision, domain.ErrStale
	}
	return decision, nil
}

// NeedsRefresh reports whether the snapshot must be refetched: empty,
// older than the TTL, or fetched before the current UTC day began.
func (c *Cache) NeedsRefresh(now time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snap == nil {
		return true
	}
	return c.snap.Stale(now, c.ttl) || c.snap.DayCrossed(now)
}

// ApplyOptimistic bumps local counters after the UI optimistically allowed
// a mutating action, keeping hints honest until the server confirms.
func (c *Cache) ApplyOptimistic(action domain.Action) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap == nil {
		return
	}
	switch action {
	case domain.ActionSendMessage:
		c.snap.MessagesSent++
		c.snap.TotalMessagesSent++
	case domain.ActionImportData:
		c.snap.DataImportsUsed++
	}
}

// Reconcile applies the server's answer for an action the UI already acted
// on. The server always wins: when it denies what the local hint allowed
// (for example two devices racing on one account), the snapshot is dropped
// so the UI rolls back and refetches.
func (c *Cache) Reconcile(local, server domain.Decision) {
	if !local.Allowed || server.Allowed {
		return
	}
	c.Invalidate()
}

// Invalidate drops the snapshot, forcing the next Hint to miss.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = nil
}
