package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	gocache "github.com/TwiN/gocache/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Cache is the injected cache component used by the API layer. Values are
// JSON-serialized so the in-memory and redis backends behave identically.
// There deliberately is no process-wide singleton; an instance is created at
// startup and handed to the components that need one.
type Cache interface {
	// Get unmarshals the cached value for key into target.
	// Returns (false, nil) on a miss.
	Get(key string, target any) (bool, error)
	// Set stores the value under key for the passed ttl;
	// ttl <= 0 means no expiration.
	Set(key string, value any, ttl time.Duration) error
	// Invalidate removes the value for key. No error if it's missing.
	Invalidate(key string) error
}

// Key joins the passed parts into a cache key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// NopCache never stores anything; used when caching is disabled.
type NopCache struct{}

// Get implements Cache
func (NopCache) Get(string, any) (bool, error) { return false, nil }

// Set implements Cache
func (NopCache) Set(string, any, time.Duration) error { return nil }

// Invalidate implements Cache
func (NopCache) Invalidate(string) error { return nil }

// MemoryCache is an in-process LRU Cache.
type MemoryCache struct {
	c *gocache.Cache
}

// NewInMemory creates a MemoryCache holding up to maxSize entries.
func NewInMemory(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = gocache.DefaultMaxSize
	}
	return &MemoryCache{
		c: gocache.NewCache().WithMaxSize(maxSize).WithEvictionPolicy(gocache.LeastRecentlyUsed),
	}
}

// Get implements Cache
func (m *MemoryCache) Get(key string, target any) (bool, error) {
	raw, ok := m.c.Get(key)
	if !ok {
		return false, nil
	}
	data, ok := raw.([]byte)
	if !ok {
		return false, errors.Errorf("unexpected cache entry type for key '%s'", key)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return false, err
	}
	return true, nil
}

// Set implements Cache
func (m *MemoryCache) Set(key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.c.SetWithTTL(key, data, ttl)
	return nil
}

// Invalidate implements Cache
func (m *MemoryCache) Invalidate(key string) error {
	m.c.Delete(key)
	return nil
}

const redisOpTimeout = 5 * time.Second

// RedisCache is a redis-backed Cache shared between instances.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedis connects to redis and verifies the connection.
func NewRedis(opts *redis.Options) (*RedisCache, error) {
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "could not reach redis")
	}
	return &RedisCache{rdb: rdb}, nil
}

// Get implements Cache
func (r *RedisCache) Get(key string, target any) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	data, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err = json.Unmarshal(data, target); err != nil {
		return false, err
	}
	return true, nil
}

// Set implements Cache
func (r *RedisCache) Set(key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return r.rdb.Set(ctx, key, data, ttl).Err()
}

// Invalidate implements Cache
func (r *RedisCache) Invalidate(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return r.rdb.Del(ctx, key).Err()
}
