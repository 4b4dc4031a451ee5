// Package idempotency remembers which outbox events a subscriber has already
// handled, so Pub/Sub redeliveries are acknowledged without repeating work.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/folio-storefront/pkg/redis"
)

const defaultTTL = 7 * 24 * time.Hour

type Tracker struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewTracker(store redis.IdempotencyStore, ttl time.Duration) (*Tracker, error) {
	if store == nil {
		return nil, errors.New("idempotency store required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must not be negative")
	}
	if ttl == 0 {
		ttl = defaultTTL
	}
	return &Tracker{store: store, ttl: ttl}, nil
}

// Claim marks eventID as handled by consumer. It reports false when an earlier
// delivery already claimed it.
func (t *Tracker) Claim(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	key, err := t.key(consumer, eventID)
	if err != nil {
		return false, err
	}
	return t.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), t.ttl)
}

// Release undoes a claim so a retried delivery is processed again.
func (t *Tracker) Release(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := t.key(consumer, eventID)
	if err != nil {
		return err
	}
	return t.store.Del(ctx, key)
}

func (t *Tracker) key(consumer string, eventID uuid.UUID) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id required")
	}
	return t.store.IdempotencyKey("events:"+consumer, eventID.String()), nil
}
