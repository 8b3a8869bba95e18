package db

import (
	"context"

	"bloomwatch/internal/domain/entity"
)

type RegionGateway interface {
	FindAll(ctx context.Context, page int, size int, namePrefix string) ([]entity.Region, error)
	Count(ctx context.Context, namePrefix string) (int64, error)
	// FindByID returns nil and no error when the region does not exist
	FindByID(ctx context.Context, id string) (*entity.Region, error)
	FindByIDs(ctx context.Context, ids []string) ([]entity.Region, error)
	// FindInBatches calls fn with successive batches of regions ordered by id
	FindInBatches(ctx context.Context, batchSize int, fn func(regions []entity.Region) error) error

	Create(ctx context.Context, region entity.Region) (*entity.Region, error)
	DeleteByID(ctx context.Context, id string) error
	// InsertMissing inserts regions whose id is not stored yet and returns how many were inserted
	InsertMissing(ctx context.Context, regions []entity.Region) (int64, error)
}

type WatchlistGateway interface {
	// FindByUser returns the entries of userID in display order with their regions loaded
	FindByUser(ctx context.Context, userID string) ([]entity.WatchlistEntry, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	// Append adds regionID at the end of the list, it reports false when it was already present
	Append(ctx context.Context, userID string, regionID string) (bool, error)
	// Remove reports false when regionID was not in the list
	Remove(ctx context.Context, userID string, regionID string) (bool, error)
}
