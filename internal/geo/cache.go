package geo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// Cache stores raw boundary downloads between runs.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// CacheKey derives the cache key for an ordered list of source URLs.
func CacheKey(urls []string) string {
	sum := sha256.Sum256([]byte(strings.Join(urls, "\n")))
	return "access:boundary:" + hex.EncodeToString(sum[:8])
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	rc *redis.Client
}

// NewRedisCache opens a Redis client for boundary caching.
func NewRedisCache(addr, password string, db int) *RedisCache {
	return &RedisCache{rc: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})}
}

// Ping verifies the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.rc.Ping(ctx).Err(); err != nil {
		return eris.Wrap(err, "geo: redis ping")
	}
	return nil
}

// Get returns the cached bytes for key. A missing key is not an error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.rc.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "geo: redis get %s", key)
	}
	return data, true, nil
}

// Set stores data under key with the given TTL.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.rc.Set(ctx, key, data, ttl).Err(); err != nil {
		return eris.Wrapf(err, "geo: redis set %s", key)
	}
	return nil
}

// Close releases the Redis client.
func (c *RedisCache) Close() error {
	return c.rc.Close()
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryCache is an in-process Cache, used when no Redis is configured so
// a long-running server still downloads boundaries once per TTL.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get returns the cached bytes for key if present and not expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return e.data, true, nil
}

// Set stores data under key. A non-positive ttl never expires.
func (c *MemoryCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memoryEntry{data: data}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}
