package health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"bloomwatch/internal/domain/model"
	"bloomwatch/pkg/sqs"
)

type staticComponent model.HealthStatus

func (s staticComponent) Health(context.Context) model.ComponentHealthStatus {
	return model.ComponentHealthStatus{Status: model.HealthStatus(s), Details: map[string]string{}}
}

func TestCheckHealthAllUp(t *testing.T) {
	uc := NewHealthUseCase(staticComponent(model.StatusUp), staticComponent(model.StatusUp), fakeQueue{status: model.StatusUp})

	resp := uc.CheckHealth(context.Background())
	assert.Equal(t, model.StatusUp, resp.Status)
	assert.Equal(t, model.StatusUp, resp.Cache.Status)
}

func TestCheckHealthAnyDown(t *testing.T) {
	for name, uc := range map[string]UseCase{
		"database": NewHealthUseCase(staticComponent(model.StatusDown), staticComponent(model.StatusUp), fakeQueue{status: model.StatusUp}),
		"cache":    NewHealthUseCase(staticComponent(model.StatusUp), staticComponent(model.StatusDown), fakeQueue{status: model.StatusUp}),
		"queue":    NewHealthUseCase(staticComponent(model.StatusUp), staticComponent(model.StatusUp), fakeQueue{status: model.StatusDown}),
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, model.StatusDown, uc.CheckHealth(context.Background()).Status)
		})
	}
}

type fakeQueue struct {
	status model.HealthStatus
}

func (f fakeQueue) Health(context.Context) model.ComponentHealthStatus {
	return model.ComponentHealthStatus{Status: f.status}
}

func (fakeQueue) RegisterWorker(string, *sqs.Worker) {}

func (fakeQueue) UnregisterWorker(string) {}
