package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bloomwatch/pkg/log"
)

// ErrCacheMiss is returned by Get when the key is absent
var ErrCacheMiss = errors.New("cache miss")

// CacheOptions represents options for cache operations
type CacheOptions struct {
	// TTL is used when the client config has no entry for CacheName
	TTL time.Duration
	// CacheName prefixes every key and selects the TTL from Config.CacheTTLs
	CacheName string
}

// NewCacheOptions creates a new cache options with default values
func NewCacheOptions() *CacheOptions {
	return &CacheOptions{TTL: 1 * time.Hour}
}

func (co *CacheOptions) WithTTL(ttl time.Duration) *CacheOptions {
	co.TTL = ttl
	return co
}

func (co *CacheOptions) WithCacheName(cacheName string) *CacheOptions {
	co.CacheName = cacheName
	return co
}

// Cache stores JSON values under CacheName::key
type Cache struct {
	client *Client
	opts   *CacheOptions
}

// NewCache creates a new cache instance
func NewCache(client *Client, opts *CacheOptions) *Cache {
	if opts == nil {
		opts = NewCacheOptions()
	}
	return &Cache{
		client: client,
		opts:   opts,
	}
}

func (c *Cache) getTTL() time.Duration {
	if c.opts.CacheName != "" && c.client.config != nil {
		if ttl := c.client.config.TTLFor(c.opts.CacheName); ttl > 0 {
			return ttl
		}
	}
	return c.opts.TTL
}

func (c *Cache) buildCacheKey(key string) string {
	if c.opts.CacheName != "" {
		return c.opts.CacheName + "::" + key
	}
	return key
}

// Name returns the cache name
func (c *Cache) Name() string {
	return c.opts.CacheName
}

// Get retrieves a value from cache and deserializes it into dest.
// It returns ErrCacheMiss when the key does not exist.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.GetBytes(ctx, c.buildCacheKey(key))
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

// GetOrSet reads key into dest, on a miss it calls setter, stores its result and copies it into dest.
// Redis read errors are logged and treated as misses so a cache outage never fails the caller.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{}, setter func() (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		log.Warnw("cache read failed", "key", c.buildCacheKey(key), "error", err)
	}

	value, err := setter()
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to serialize value: %w", err)
	}
	if err := c.client.Set(ctx, c.buildCacheKey(key), data, c.getTTL()); err != nil {
		log.Warnw("cache write failed", "key", c.buildCacheKey(key), "error", err)
	}

	return json.Unmarshal(data, dest)
}
