package cache

import (
	"time"

	"bloomwatch/pkg/redis"
	"bloomwatch/pkg/resource"
)

const (
	ClimateCache = "climate"
	NdviCache    = "ndvi"
	LLMLimiter   = "llm"
)

// Config reads app.redis.* properties
func Config() *redis.Config {
	return redis.NewRedisConfig().
		WithHost(resource.GetStringOrDefault("app.redis.host", "localhost")).
		WithPort(resource.GetIntOrDefault("app.redis.port", 6379)).
		WithPassword(resource.GetString("app.redis.password")).
		WithDatabase(resource.GetInt("app.redis.database")).
		WithDefaultCacheTTL(resource.GetDurationOrDefault("app.redis.cache.default-ttl", redis.NewRedisConfig().DefaultCacheTTL)).
		WithCacheTTL(ClimateCache, resource.GetDurationOrDefault("app.redis.cache.climate-ttl", 0)).
		WithCacheTTL(NdviCache, resource.GetDurationOrDefault("app.redis.cache.ndvi-ttl", 0))
}

func Connect() (*redis.Client, error) {
	return redis.NewClient(Config())
}

// NewResponseCache returns the named cache with its configured TTL
func NewResponseCache(client *redis.Client, name string) *redis.Cache {
	return redis.NewCache(client, redis.NewCacheOptions().
		WithCacheName(name).
		WithTTL(client.GetConfig().TTLFor(name)))
}

// NewLLMLimiter bounds concurrent model calls across every instance, a zero app.llm.max-concurrent disables it
func NewLLMLimiter(client *redis.Client) (*redis.RateLimiter, error) {
	maxConcurrent := resource.GetIntOrDefault("app.llm.max-concurrent", 4)
	if maxConcurrent <= 0 {
		return nil, nil
	}
	return redis.NewRateLimiter(client, LLMLimiter, redis.NewRateLimiterOptions().
		WithNamespace("bloomwatch").
		WithMaxActiveTransactions(maxConcurrent).
		WithWaitOnLimit(true, resource.GetDurationOrDefault("app.llm.queue-timeout", 30*time.Second)).
		WithCacheName(LLMLimiter))
}
