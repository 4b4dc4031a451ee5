package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/folio-storefront/pkg/redis"
)

// StateStore persists one cart per browsing session. Update must apply fn and
// save the result without interleaving with other updates of the same session.
type StateStore interface {
	Load(ctx context.Context, sessionID string) (Snapshot, error)
	Update(ctx context.Context, sessionID string, fn func(*Store) error) (Snapshot, error)
}

func emptySnapshot() Snapshot {
	return NewStore().Read()
}

func decodeSnapshot(raw []byte) (*Store, error) {
	if len(raw) == 0 {
		return NewStore(), nil
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	return Restore(snap), nil
}

type redisClient interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	Update(ctx context.Context, key string, ttl time.Duration, fn func(current []byte) ([]byte, error)) error
	CartKey(sessionID string) string
}

// RedisState keeps cart snapshots in Redis for the lifetime of the browsing session.
type RedisState struct {
	client redisClient
	ttl    time.Duration
}

func NewRedisState(client redisClient, ttl time.Duration) (*RedisState, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &RedisState{client: client, ttl: ttl}, nil
}

func (r *RedisState) Load(ctx context.Context, sessionID string) (Snapshot, error) {
	raw, err := r.client.GetBytes(ctx, r.client.CartKey(sessionID))
	if errors.Is(err, redis.ErrNotFound) {
		return emptySnapshot(), nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load cart: %w", err)
	}
	store, err := decodeSnapshot(raw)
	if err != nil {
		return Snapshot{}, err
	}
	return store.Read(), nil
}

func (r *RedisState) Update(ctx context.Context, sessionID string, fn func(*Store) error) (Snapshot, error) {
	var result Snapshot
	err := r.client.Update(ctx, r.client.CartKey(sessionID), r.ttl, func(current []byte) ([]byte, error) {
		store, err := decodeSnapshot(current)
		if err != nil {
			return nil, err
		}
		if err := fn(store); err != nil {
			return nil, err
		}
		result = store.Read()
		return json.Marshal(result)
	})
	if err != nil {
		return Snapshot{}, err
	}
	return result, nil
}

type memoryEntry struct {
	store     *Store
	expiresAt time.Time
}

// MemoryState is the single-process StateStore used in dev mode and tests.
type MemoryState struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryState(ttl time.Duration) *MemoryState {
	return &MemoryState{ttl: ttl, now: time.Now, entries: map[string]memoryEntry{}}
}

func (m *MemoryState) Load(_ context.Context, sessionID string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.liveLocked(sessionID); ok {
		return entry.store.Read(), nil
	}
	return emptySnapshot(), nil
}

func (m *MemoryState) Update(_ context.Context, sessionID string, fn func(*Store) error) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.liveLocked(sessionID)
	working := NewStore()
	if ok {
		working = Restore(entry.store.Read())
	}
	if err := fn(working); err != nil {
		return Snapshot{}, err
	}
	m.entries[sessionID] = memoryEntry{store: working, expiresAt: m.expiry()}
	return working.Read(), nil
}

func (m *MemoryState) liveLocked(sessionID string) (memoryEntry, bool) {
	entry, ok := m.entries[sessionID]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		delete(m.entries, sessionID)
		return memoryEntry{}, false
	}
	return entry, true
}

func (m *MemoryState) expiry() time.Time {
	if m.ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(m.ttl)
}
