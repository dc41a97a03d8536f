package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheHelper provides prefixed, TTL-bound JSON storage on top of redis
type CacheHelper struct {
	client *redis.Client
	prefix string
}

// NewCacheHelper creates a new cache helper instance
func NewCacheHelper(client *redis.Client, prefix string) *CacheHelper {
	return &CacheHelper{
		client: client,
		prefix: prefix,
	}
}

// SessionKeyPrefix namespaces session keys. Each key carries its own TTL
// derived from the session's expiry.
const SessionKeyPrefix = "session:"

// GetCacheKey generates a cache key with prefix
func (c *CacheHelper) GetCacheKey(key string) string {
	return fmt.Sprintf("%s%s", c.prefix, key)
}

// Get retrieves and unmarshals data from cache
func (c *CacheHelper) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	cacheKey := c.GetCacheKey(key)
	data, err := c.client.Get(ctx, cacheKey).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheNotFound
		}
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}

	return nil
}

// SetIfAbsent stores data only when the key does not exist yet. It reports
// whether the value was written.
func (c *CacheHelper) SetIfAbsent(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	if c.client == nil {
		return false, ErrCacheNotAvailable
	}

	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("cache marshal error: %w", err)
	}

	cacheKey := c.GetCacheKey(key)
	ok, err := c.client.SetNX(ctx, cacheKey, data, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache setnx error: %w", err)
	}
	return ok, nil
}

// Delete removes the given keys; missing keys are not an error
func (c *CacheHelper) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	if len(keys) == 0 {
		return nil
	}

	cacheKeys := make([]string, len(keys))
	for i, key := range keys {
		cacheKeys[i] = c.GetCacheKey(key)
	}

	return c.client.Del(ctx, cacheKeys...).Err()
}

// Cache errors
var (
	ErrCacheNotAvailable = fmt.Errorf("cache not available")
	ErrCacheNotFound     = fmt.Errorf("cache not found")
	ErrCacheCorrupt      = fmt.Errorf("cache entry corrupt")
)

// CacheManager manages the cache helpers used by the service
type CacheManager struct {
	Session *CacheHelper

	client *redis.Client
}

// NewCacheManager creates cache manager with all cache helpers. A nil client
// yields helpers that report ErrCacheNotAvailable.
func NewCacheManager(client *redis.Client) *CacheManager {
	if client == nil {
		return &CacheManager{
			Session: NewCacheHelper(nil, ""),
		}
	}

	return &CacheManager{
		Session: NewCacheHelper(client, SessionKeyPrefix),
		client:  client,
	}
}

// HealthCheck verifies cache connectivity
func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if cm.client == nil {
		return ErrCacheNotAvailable
	}

	_, err := cm.client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("cache health check failed: %w", err)
	}

	return nil
}
