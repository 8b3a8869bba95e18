package api

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloomwatch/internal/domain/model"
	"bloomwatch/pkg/redis"
)

type blockingLLM struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingLLM) GeneratePrediction(ctx context.Context, _ string) (string, error) {
	b.calls.Add(1)
	select {
	case b.started <- struct{}{}:
	default:
	}
	select {
	case <-b.release:
		return `{"predictedDate":"2025-04-02"}`, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (b *blockingLLM) ModelName() string { return "gemini-test" }

func newLLMLimiter(t *testing.T, maxActive int) *redis.RateLimiter {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	limiter, err := redis.NewRateLimiter(redis.NewClientFromUniversal(rdb, nil), "llm", redis.NewRateLimiterOptions().
		WithMaxActiveTransactions(maxActive).
		WithWaitOnLimit(true, 50*time.Millisecond).
		WithCacheName("llm"))
	require.NoError(t, err)
	return limiter
}

func TestLimitedLLMGatewayBoundsConcurrentCalls(t *testing.T) {
	limiter := newLLMLimiter(t, 1)
	next := &blockingLLM{started: make(chan struct{}, 1), release: make(chan struct{})}
	gateway := NewLimitedLLMGateway(next, limiter)
	ctx := context.Background()

	firstDone := make(chan error, 1)
	go func() {
		_, err := gateway.GeneratePrediction(ctx, "first")
		firstDone <- err
	}()
	<-next.started

	_, err := gateway.GeneratePrediction(ctx, "second")
	assert.ErrorIs(t, err, model.ErrRateLimited)
	assert.Equal(t, int32(1), next.calls.Load())

	close(next.release)
	require.NoError(t, <-firstDone)

	answer, err := gateway.GeneratePrediction(ctx, "third")
	require.NoError(t, err)
	assert.Contains(t, answer, "predictedDate")
	assert.Equal(t, int32(2), next.calls.Load())
	assert.Equal(t, "gemini-test", gateway.ModelName())
}

func TestLimitedLLMGatewayCallsModelWhenLimiterIsDown(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })
	limiter, err := redis.NewRateLimiter(redis.NewClientFromUniversal(rdb, nil), "llm", redis.NewRateLimiterOptions().WithMaxActiveTransactions(1))
	require.NoError(t, err)

	release := make(chan struct{})
	close(release)
	next := &blockingLLM{release: release}

	answer, err := NewLimitedLLMGateway(next, limiter).GeneratePrediction(context.Background(), "prompt")
	require.NoError(t, err)
	assert.NotEmpty(t, answer)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestNewLimitedLLMGatewayWithoutLimiter(t *testing.T) {
	next := &blockingLLM{}
	assert.Same(t, LLMGateway(next), NewLimitedLLMGateway(next, nil))
}
