package cache

import (
	"context"

	"bloomwatch/internal/domain/model"
)

type JobGateway interface {
	Save(ctx context.Context, job model.PredictionJob) error
	// Find returns nil and no error when the job is unknown or expired
	Find(ctx context.Context, id string) (*model.PredictionJob, error)
}

type HealthCacheGateway interface {
	Health(ctx context.Context) model.ComponentHealthStatus
}
