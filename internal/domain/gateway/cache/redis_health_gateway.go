package cache

import (
	"context"
	"strconv"

	"bloomwatch/internal/domain/model"
	"bloomwatch/pkg/redis"
)

type RedisHealthGateway struct {
	checker *redis.HealthChecker
}

var _ HealthCacheGateway = (*RedisHealthGateway)(nil)

func NewRedisHealthGateway(client *redis.Client) *RedisHealthGateway {
	return &RedisHealthGateway{checker: redis.NewHealthChecker(client)}
}

func (gateway *RedisHealthGateway) Health(ctx context.Context) model.ComponentHealthStatus {
	check := gateway.checker.HealthCheck(ctx)

	details := make(map[string]string, len(check.Details))
	for k, v := range check.Details {
		details[k] = v
	}
	for name, held := range check.LockStatus {
		details["lock_"+name] = strconv.FormatBool(held)
	}
	for name, metrics := range check.RateLimiters {
		for k, v := range metrics {
			details["limiter_"+name+"_"+k] = v
		}
	}

	status := model.StatusDown
	switch check.Status {
	case redis.StatusUp:
		status = model.StatusUp
	case redis.StatusUnknown:
		status = model.StatusUnknown
	}
	return model.ComponentHealthStatus{Status: status, Details: details}
}
