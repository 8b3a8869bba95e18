package cache

import (
	"context"
	"errors"
	"fmt"

	"bloomwatch/internal/domain/model"
	"bloomwatch/pkg/msg"
	"bloomwatch/pkg/redis"
)

type RedisLimiterGateway struct {
	client    *redis.Client
	name      string
	perMinute int
}

var _ LimiterGateway = (*RedisLimiterGateway)(nil)

// NewRedisLimiterGateway allows perMinute calls per user in a sliding minute, zero disables the limit
func NewRedisLimiterGateway(client *redis.Client, name string, perMinute int) *RedisLimiterGateway {
	return &RedisLimiterGateway{client: client, name: name, perMinute: perMinute}
}

func (gateway *RedisLimiterGateway) Allow(ctx context.Context, userID string) error {
	if gateway.perMinute <= 0 {
		return nil
	}

	limiter, err := redis.NewRateLimiter(gateway.client, gateway.name+"::"+userID,
		redis.NewRateLimiterOptions().
			WithNamespace("bloomwatch").
			WithMaxTransactionsPerMinute(gateway.perMinute))
	if err != nil {
		return err
	}

	if _, err = limiter.Acquire(ctx); err != nil {
		if errors.Is(err, redis.ErrRateLimited) {
			return model.RateLimited(err, "%s", msg.GetMessage("error.rate-limited"))
		}
		return fmt.Errorf("rate limiter unavailable: %w", err)
	}
	return nil
}
