package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"integration-gateway/internal/models"
)

// LocalStore wraps patrickmn/go-cache for in-memory caching
type LocalStore struct {
	cache *gocache.Cache
}

// NewLocalStore creates an in-process store. defaultTTL applies only when Set
// is called with a non-positive ttl.
func NewLocalStore(defaultTTL, cleanupInterval time.Duration) *LocalStore {
	return &LocalStore{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a copy of the stored envelope
func (l *LocalStore) Get(ctx context.Context, key string) (*models.ResponseEnvelope, bool, error) {
	value, found := l.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	env, ok := value.(*models.ResponseEnvelope)
	if !ok {
		l.cache.Delete(key)
		return nil, false, nil
	}
	return cloneEnvelope(env), true, nil
}

// Set stores a copy of env
func (l *LocalStore) Set(ctx context.Context, key string, env *models.ResponseEnvelope, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	l.cache.Set(key, cloneEnvelope(env), ttl)
	return nil
}

// Expiration returns when key expires; ok is false if the key is absent
func (l *LocalStore) Expiration(key string) (time.Time, bool) {
	_, expiration, found := l.cache.GetWithExpiration(key)
	return expiration, found
}

// Health always succeeds for the in-process store
func (l *LocalStore) Health(ctx context.Context) error {
	return nil
}

// Close drops every entry
func (l *LocalStore) Close() error {
	l.cache.Flush()
	return nil
}
