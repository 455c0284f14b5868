package cache

import (
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Type represents the cache backend type
type Type string

const (
	TypeMemory Type = "memory"
	TypeRedis  Type = "redis"
	TypeTiered Type = "tiered"
)

// Config holds cache configuration
type Config struct {
	Type            Type
	DefaultTTL      time.Duration
	L1MaxTTL        time.Duration
	CleanupInterval time.Duration
	KeyPrefix       string
	RedisClient     *redis.Client
}

// New creates a store based on configuration
func New(config Config) (Store, error) {
	cleanup := config.CleanupInterval
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}

	switch config.Type {
	case TypeMemory:
		return NewLocalStore(config.DefaultTTL, cleanup), nil

	case TypeRedis:
		if config.RedisClient == nil {
			return nil, fmt.Errorf("redis client required for redis cache")
		}
		return NewRedisStore(config.RedisClient, config.KeyPrefix), nil

	case TypeTiered:
		if config.RedisClient == nil {
			return nil, fmt.Errorf("redis client required for tiered cache")
		}
		l1MaxTTL := config.L1MaxTTL
		if l1MaxTTL <= 0 {
			l1MaxTTL = time.Minute
		}
		return NewTieredStore(NewRedisStore(config.RedisClient, config.KeyPrefix), l1MaxTTL, cleanup), nil

	default:
		return nil, fmt.Errorf("unknown cache type: %s", config.Type)
	}
}
