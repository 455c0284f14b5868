package cache

import (
	"context"
	"time"

	"integration-gateway/internal/common/logging"
	"integration-gateway/internal/models"
)

// ttlReader is implemented by stores that can report the remaining lifetime
// of an entry, such as RedisStore.
type ttlReader interface {
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// TieredStore combines an in-process L1 with a Redis L2.
// L2 is the source of truth. L1 entries never outlive l1MaxTTL or the
// remaining lifetime of the L2 entry they were copied from.
type TieredStore struct {
	l1       *LocalStore
	l2       Store
	l1MaxTTL time.Duration
	logger   logging.Logger
}

// NewTieredStore creates a store with a local L1 in front of l2
func NewTieredStore(l2 Store, l1MaxTTL, cleanupInterval time.Duration) *TieredStore {
	return &TieredStore{
		l1:       NewLocalStore(l1MaxTTL, cleanupInterval),
		l2:       l2,
		l1MaxTTL: l1MaxTTL,
		logger:   logging.Component("cache.tiered"),
	}
}

// Get checks L1 first, then L2, populating L1 on an L2 hit
func (t *TieredStore) Get(ctx context.Context, key string) (*models.ResponseEnvelope, bool, error) {
	if env, found, _ := t.l1.Get(ctx, key); found {
		return env, true, nil
	}

	env, found, err := t.l2.Get(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}

	if ttl, ok := t.refillTTL(ctx, key); ok {
		_ = t.l1.Set(ctx, key, env, ttl)
	}
	return env, true, nil
}

// refillTTL returns the L1 lifetime for an entry just read from L2. ok is
// false when L1 should not be populated.
func (t *TieredStore) refillTTL(ctx context.Context, key string) (time.Duration, bool) {
	reader, ok := t.l2.(ttlReader)
	if !ok {
		return t.l1MaxTTL, true
	}

	remaining, err := reader.TTL(ctx, key)
	if err != nil {
		t.logger.Debug("Skipping L1 refill, ttl lookup failed", logging.Err(err))
		return 0, false
	}
	switch {
	case remaining == -1:
		// no expiry in L2
		return t.l1MaxTTL, true
	case remaining <= 0:
		return 0, false
	case remaining < t.l1MaxTTL:
		return remaining, true
	default:
		return t.l1MaxTTL, true
	}
}

// Set stores in L2 first, then in L1 with a capped ttl
func (t *TieredStore) Set(ctx context.Context, key string, env *models.ResponseEnvelope, ttl time.Duration) error {
	if err := t.l2.Set(ctx, key, env, ttl); err != nil {
		return err
	}

	l1TTL := ttl
	if ttl <= 0 || ttl > t.l1MaxTTL {
		l1TTL = t.l1MaxTTL
	}
	return t.l1.Set(ctx, key, env, l1TTL)
}

// Health reports the health of L2
func (t *TieredStore) Health(ctx context.Context) error {
	return t.l2.Health(ctx)
}

// Close closes both tiers
func (t *TieredStore) Close() error {
	_ = t.l1.Close()
	if err := t.l2.Close(); err != nil {
		t.logger.Warn("Failed to close L2 cache", logging.Err(err))
		return err
	}
	return nil
}
