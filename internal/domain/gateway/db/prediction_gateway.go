package db

import (
	"context"
	"time"

	"bloomwatch/internal/domain/entity"
)

type PredictionGateway interface {
	Save(ctx context.Context, record entity.PredictionRecord) error
	FindByUser(ctx context.Context, userID string, page int, size int) ([]entity.PredictionRecord, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	// DeleteOlderThan removes records created before cutoff and returns how many were removed
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
