package queue

import (
	"context"

	"bloomwatch/internal/domain/model"
	"bloomwatch/pkg/sqs"
)

type HealthGateway interface {
	Health(ctx context.Context) model.ComponentHealthStatus
	RegisterWorker(name string, worker *sqs.Worker)
	UnregisterWorker(name string)
}
