package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/go-redis/redis/v8"

	"integration-gateway/internal/common/errors"
	"integration-gateway/internal/models"
)

// RedisStore wraps go-redis for distributed caching
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore creates a Redis backed store. The client is owned by the caller.
func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get retrieves and decodes an envelope from Redis
func (r *RedisStore) Get(ctx context.Context, key string) (*models.ResponseEnvelope, bool, error) {
	val, err := r.client.Get(ctx, r.keyPrefix+key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.CacheError("failed to read cache entry", err)
	}

	var env models.ResponseEnvelope
	if err := json.Unmarshal(val, &env); err != nil {
		return nil, false, errors.CacheError("failed to decode cache entry", err)
	}
	return &env, true, nil
}

// Set stores env as JSON with the given ttl
func (r *RedisStore) Set(ctx context.Context, key string, env *models.ResponseEnvelope, ttl time.Duration) error {
	if env == nil {
		env = models.EmptyEnvelope()
	}
	data, err := json.Marshal(env)
	if err != nil {
		return errors.CacheError("failed to encode cache entry", err)
	}

	if err := r.client.Set(ctx, r.keyPrefix+key, data, ttl).Err(); err != nil {
		return errors.CacheError("failed to write cache entry", err)
	}
	return nil
}

// TTL returns the remaining lifetime of key with millisecond precision.
// Like PTTL it returns -1 for a key without expiry and -2 for a missing key.
func (r *RedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := r.client.PTTL(ctx, r.keyPrefix+key).Result()
	if err != nil {
		return 0, errors.CacheError("failed to read cache entry ttl", err)
	}
	return ttl, nil
}

// Health pings Redis
func (r *RedisStore) Health(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return errors.ConnectionError("redis ping failed", err)
	}
	return nil
}

// Close is a no-op; the shared client is closed by its owner
func (r *RedisStore) Close() error {
	return nil
}
