package queue

import (
	"context"
	"strconv"
	"sync"

	"bloomwatch/internal/domain/model"
	"bloomwatch/pkg/sqs"
)

type QueueHealthGateway struct {
	resolver  QueueResolver
	queueName string
	workers   map[string]*sqs.Worker
	mutex     sync.RWMutex
}

var _ HealthGateway = (*QueueHealthGateway)(nil)

// NewQueueHealthGateway probes queueName through resolver and reports registered workers
func NewQueueHealthGateway(resolver QueueResolver, queueName string) *QueueHealthGateway {
	return &QueueHealthGateway{
		resolver:  resolver,
		queueName: queueName,
		workers:   make(map[string]*sqs.Worker),
	}
}

func (gateway *QueueHealthGateway) RegisterWorker(name string, worker *sqs.Worker) {
	gateway.mutex.Lock()
	defer gateway.mutex.Unlock()
	gateway.workers[name] = worker
}

func (gateway *QueueHealthGateway) UnregisterWorker(name string) {
	gateway.mutex.Lock()
	defer gateway.mutex.Unlock()
	delete(gateway.workers, name)
}

func (gateway *QueueHealthGateway) Health(ctx context.Context) model.ComponentHealthStatus {
	overallStatus := model.StatusUp
	details := map[string]string{"queue": gateway.queueName}

	if _, err := gateway.resolver.QueueURL(ctx, gateway.queueName); err != nil {
		overallStatus = model.StatusDown
		details["message"] = err.Error()
	}

	gateway.mutex.RLock()
	defer gateway.mutex.RUnlock()

	workersUp := 0
	workersDown := 0
	for name, worker := range gateway.workers {
		workerHealth := worker.HealthCheck()

		if workerHealth.Status == sqs.StatusUp {
			workersUp++
			details[name+"_status"] = string(model.StatusUp)
		} else {
			workersDown++
			overallStatus = model.StatusDown
			details[name+"_status"] = string(model.StatusDown)
		}

		for key, value := range workerHealth.Details {
			details[name+"_"+key] = value
		}
	}

	details["workers_total"] = strconv.Itoa(len(gateway.workers))
	details["workers_up"] = strconv.Itoa(workersUp)
	details["workers_down"] = strconv.Itoa(workersDown)

	return model.ComponentHealthStatus{
		Status:  overallStatus,
		Details: details,
	}
}
