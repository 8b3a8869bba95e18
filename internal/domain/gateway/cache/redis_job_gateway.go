package cache

import (
	"context"
	"time"

	"bloomwatch/internal/domain/model"
	"bloomwatch/pkg/redis"
)

const jobKeyPrefix = "bloomwatch::prediction-job::"

type RedisJobGateway struct {
	client *redis.Client
	ttl    time.Duration
}

var _ JobGateway = (*RedisJobGateway)(nil)

func NewRedisJobGateway(client *redis.Client, ttl time.Duration) *RedisJobGateway {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisJobGateway{client: client, ttl: ttl}
}

// Save overwrites the job state and restarts its TTL
func (gateway *RedisJobGateway) Save(ctx context.Context, job model.PredictionJob) error {
	return gateway.client.SetJSON(ctx, jobKeyPrefix+job.ID, job, gateway.ttl)
}

func (gateway *RedisJobGateway) Find(ctx context.Context, id string) (*model.PredictionJob, error) {
	var job model.PredictionJob
	found, err := gateway.client.GetJSON(ctx, jobKeyPrefix+id, &job)
	if err != nil || !found {
		return nil, err
	}
	return &job, nil
}
