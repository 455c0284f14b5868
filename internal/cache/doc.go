// Package cache stores response envelopes keyed by request fingerprint.
//
// Three backends implement Store:
//   - RedisStore: distributed store on github.com/go-redis/redis/v8, JSON values
//   - LocalStore: in-process store on github.com/patrickmn/go-cache
//   - TieredStore: LocalStore as L1 in front of RedisStore as L2
//
// Stores never choose a TTL themselves; callers compute it with TTLPolicy.
//
// Usage:
//
//	store := cache.NewRedisStore(redisClient, "gateway:")
//	ttl := cache.TTLPolicy{Default: time.Hour}.For(req.CachePolicy.StrictCacheTimeInMinutes)
//	err := store.Set(ctx, key, envelope, ttl)
//	env, found, err := store.Get(ctx, key)
package cache
