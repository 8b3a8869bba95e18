package prediction

import (
	"context"
	"errors"
	"time"

	"bloomwatch/internal/domain/entity"
	"bloomwatch/internal/domain/model"
)

type UseCase interface {
	// Predict asks the model for the next bloom date of a catalogue region or an ad hoc point
	Predict(ctx context.Context, user model.AuthUser, request model.PredictionRequest) (*model.PredictionResult, error)

	// PredictBatch predicts every selected region, items follow the selection order
	PredictBatch(ctx context.Context, user model.AuthUser, request model.BatchPredictionRequest) ([]model.BatchPredictionItem, error)

	// SubmitJob stores a PENDING job and enqueues it for the worker
	SubmitJob(ctx context.Context, user model.AuthUser, request model.BatchPredictionRequest) (*model.PredictionJob, error)

	// GetJob returns a job owned by user
	GetJob(ctx context.Context, user model.AuthUser, id string) (*model.PredictionJob, error)

	// ProcessJob runs a queued job, redelivered finished jobs are ignored and
	// a job still running elsewhere returns ErrJobInProgress
	ProcessJob(ctx context.Context, message model.PredictionJobMessage) error

	ListHistory(ctx context.Context, user model.AuthUser, page int, size int) (*model.Page[entity.PredictionRecord], error)

	// PurgeHistory removes predictions older than retention
	PurgeHistory(ctx context.Context, retention time.Duration) (int64, error)
}

// ErrJobInProgress is returned for a redelivered job another worker is still running
var ErrJobInProgress = errors.New("prediction job is already running")

type Options struct {
	MaxRegions  int
	Concurrency int
	QueueName   string
	// RunningTimeout is how long a RUNNING job is owned by its worker before a redelivery may take it over
	RunningTimeout time.Duration
	// Clock defaults to time.Now
	Clock func() time.Time
}
