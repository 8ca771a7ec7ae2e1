package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fernhq/fern/internal/entitlement/domain"
)

// RedisSnapshotStore keeps server-side snapshots of decision inputs so the
// API can serve cheap status reads and the worker can invalidate them when
// billing events land. Keys are namespaced entitlement:user:{id}:snapshot.
type RedisSnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSnapshotStore creates a new store with the given snapshot TTL.
func NewRedisSnapshotStore(client *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client, ttl: ttl}
}

func snapshotKey(userID uuid.UUID) string {
	return fmt.Sprintf("entitlement:user:%s:snapshot", userID)
}

// Save stores the snapshot under the user's key with the configured TTL.
func (s *RedisSnapshotStore) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return s.client.Set(ctx, snapshotKey(snap.UserID), data, s.ttl).Err()
}

// Load returns the stored snapshot for a user. A missing or expired key
// maps to domain.ErrNotFound.
func (s *RedisSnapshotStore) Load(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey(userID)).Bytes()
	if err == redis.Nil {
		return Snapshot{}, domain.ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// Invalidate deletes the stored snapshot so the next read refetches from
// the authoritative store.
func (s *RedisSnapshotStore) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return s.client.Del(ctx, snapshotKey(userID)).Err()
}
