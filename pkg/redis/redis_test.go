package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := DefaultConfig().WithCacheTTL("climate", 2*time.Hour)
	return NewClientFromUniversal(rdb, cfg), mr
}

type point struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, DefaultConfig().WithHost("").Validate())
	assert.Error(t, DefaultConfig().WithPort(70000).Validate())
	assert.Error(t, DefaultConfig().WithDatabase(16).Validate())
	assert.Error(t, DefaultConfig().WithCacheTTL("ndvi", -time.Second).Validate())
}

func TestConfigTTLFor(t *testing.T) {
	cfg := DefaultConfig().WithDefaultCacheTTL(time.Hour).WithCacheTTL("ndvi", 24*time.Hour)
	assert.Equal(t, 24*time.Hour, cfg.TTLFor("ndvi"))
	assert.Equal(t, time.Hour, cfg.TTLFor("climate"))
}

func TestCacheGetMissThenGetOrSet(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewCache(client, NewCacheOptions().WithCacheName("climate"))
	ctx := context.Background()

	var got point
	err := cache.Get(ctx, "k1", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.GetOrSet(ctx, "k1", &got, func() (interface{}, error) {
		return point{Month: "2024-01", Value: 3.5}, nil
	}))
	var again point
	require.NoError(t, cache.Get(ctx, "k1", &again))
	assert.Equal(t, point{Month: "2024-01", Value: 3.5}, again)
	assert.Equal(t, got, again)

	assert.True(t, mr.Exists("climate::k1"))
	assert.Equal(t, 2*time.Hour, mr.TTL("climate::k1"))
	assert.Equal(t, "climate", cache.Name())
}

func TestCacheGetOrSetTreatsCorruptEntryAsMiss(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewCache(client, NewCacheOptions().WithCacheName("climate"))
	require.NoError(t, mr.Set("climate::k1", "not json"))

	var got point
	err := cache.GetOrSet(context.Background(), "k1", &got, func() (interface{}, error) {
		return point{Month: "2024-02", Value: 1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-02", got.Month)
}

func TestCacheGetOrSetCallsSetterOnce(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewCache(client, NewCacheOptions().WithCacheName("ndvi"))
	ctx := context.Background()

	calls := 0
	setter := func() (interface{}, error) {
		calls++
		return []point{{Month: "Jan", Value: 1.2}}, nil
	}

	var first, second []point
	require.NoError(t, cache.GetOrSet(ctx, "series", &first, setter))
	require.NoError(t, cache.GetOrSet(ctx, "series", &second, setter))

	assert.Equal(t, 1, calls)
	assert.Equal(t, []point{{Month: "Jan", Value: 1.2}}, first)
	assert.Equal(t, first, second)
}

func TestCacheGetOrSetDoesNotCacheFailures(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewCache(client, NewCacheOptions().WithCacheName("ndvi"))
	boom := errors.New("upstream down")

	var dest []point
	err := cache.GetOrSet(context.Background(), "series", &dest, func() (interface{}, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("ndvi::series"))
}

func TestLockIsExclusive(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	opts := NewLockOptions().WithMaxRetries(0).WithLockNamespace("schedule")

	first := NewLock(client, "climate-warmer", opts)
	second := NewLock(client, "climate-warmer", opts)

	require.NoError(t, first.Lock(ctx))
	assert.ErrorIs(t, second.Lock(ctx), ErrLockNotAcquired)
	assert.ErrorIs(t, second.Unlock(ctx), ErrLockNotHeld)

	assert.True(t, GetLockStatus()["schedule::climate-warmer"])

	require.NoError(t, first.Unlock(ctx))
	require.NoError(t, second.Lock(ctx))
	require.NoError(t, second.Refresh(ctx))
}

func TestLockWithFuncReleasesLock(t *testing.T) {
	client, mr := newTestClient(t)
	opts := NewLockOptions().WithMaxRetries(0).WithRefreshInterval(0)

	ran := false
	err := LockWithFunc(context.Background(), client, "job", opts, func(ctx context.Context) error {
		ran = true
		assert.True(t, mr.Exists("job"))
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, mr.Exists("job"))
}

func TestRateLimiterPerMinute(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	limiter, err := NewRateLimiter(client, "predictions::user-1", NewRateLimiterOptions().WithMaxTransactionsPerMinute(2))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := limiter.Acquire(ctx)
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}
	_, err = limiter.Acquire(ctx)
	assert.ErrorIs(t, err, ErrRateLimited)

	other, err := NewRateLimiter(client, "predictions::user-2", NewRateLimiterOptions().WithMaxTransactionsPerMinute(2))
	require.NoError(t, err)
	_, err = other.Acquire(ctx)
	assert.NoError(t, err)
}

func TestRateLimiterActiveSlots(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	limiter, err := NewRateLimiter(client, "llm", NewRateLimiterOptions().WithMaxActiveTransactions(1).WithCacheName("llm"))
	require.NoError(t, err)

	id, err := limiter.Acquire(ctx)
	require.NoError(t, err)
	_, err = limiter.Acquire(ctx)
	assert.ErrorIs(t, err, ErrRateLimited)

	require.NoError(t, limiter.Release(ctx, id))
	assert.NoError(t, limiter.WithTransaction(ctx, func() error { return nil }))

	metrics := GetRateLimiterMetrics(ctx)
	assert.Equal(t, "0", metrics["llm"]["active_transactions"])
}

func TestRateLimiterRequiresALimit(t *testing.T) {
	client, _ := newTestClient(t)
	_, err := NewRateLimiter(client, "x", NewRateLimiterOptions())
	assert.Error(t, err)

	_, err = NewRateLimiter(client, "x", NewRateLimiterOptions().WithMaxActiveTransactions(1).WithWaitOnLimit(true, 0))
	assert.Error(t, err)
}

func TestRateLimiterWaitsForFreeSlot(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	limiter, err := NewRateLimiter(client, "llm-wait", NewRateLimiterOptions().
		WithMaxActiveTransactions(1).
		WithWaitOnLimit(true, time.Second))
	require.NoError(t, err)

	id, err := limiter.Acquire(ctx)
	require.NoError(t, err)
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = limiter.Release(context.Background(), id)
	}()

	_, err = limiter.Acquire(ctx)
	assert.NoError(t, err)
}

func TestHealthCheck(t *testing.T) {
	client, mr := newTestClient(t)
	checker := NewHealthChecker(client)

	up := checker.HealthCheck(context.Background())
	assert.Equal(t, StatusUp, up.Status)
	assert.Equal(t, "true", up.Details["ping_successful"])

	mr.Close()
	down := checker.HealthCheck(context.Background())
	assert.Equal(t, StatusDown, down.Status)
	assert.NotEmpty(t, checker.GetLastError())
}
