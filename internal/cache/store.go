package cache

import (
	"context"
	"encoding/json"
	"time"

	"integration-gateway/internal/models"
)

// Store is a TTL key-value store of response envelopes
type Store interface {
	// Get returns the envelope stored under key. found is false on a miss.
	Get(ctx context.Context, key string) (env *models.ResponseEnvelope, found bool, err error)
	Set(ctx context.Context, key string, env *models.ResponseEnvelope, ttl time.Duration) error
	Health(ctx context.Context) error
	Close() error
}

// TTLPolicy selects the lifetime of a cache entry
type TTLPolicy struct {
	// Default applies when a request does not carry a strict TTL
	Default time.Duration
}

// For returns strictMinutes minutes when positive, otherwise the default.
// The per-request override is in minutes while the default is configured in
// milliseconds; both arrive here already converted.
func (p TTLPolicy) For(strictMinutes int) time.Duration {
	if strictMinutes > 0 {
		return time.Duration(strictMinutes) * time.Minute
	}
	return p.Default
}

func cloneEnvelope(env *models.ResponseEnvelope) *models.ResponseEnvelope {
	if env == nil {
		return models.EmptyEnvelope()
	}
	clone := &models.ResponseEnvelope{ID: env.ID}
	if env.ResponseData != nil {
		clone.ResponseData = append(json.RawMessage(nil), env.ResponseData...)
	}
	return clone
}
