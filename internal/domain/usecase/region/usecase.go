package region

import (
	"context"

	"bloomwatch/internal/domain/entity"
	"bloomwatch/internal/domain/model"
)

type UseCase interface {
	// ListRegions returns a page of regions ordered by name, optionally filtered by a name prefix
	ListRegions(ctx context.Context, page int, size int, namePrefix string) (*model.Page[entity.Region], error)

	GetRegion(ctx context.Context, id string) (*entity.Region, error)

	// ResolveRegions loads ids in one query, unknown ids are absent from the map
	ResolveRegions(ctx context.Context, ids []string) (map[string]entity.Region, error)

	// CreateRegion stores a custom region owned by user with its NDVI proxy fetched from NASA POWER
	CreateRegion(ctx context.Context, user model.AuthUser, dto model.CreateRegionDTO) (*entity.Region, error)

	// DeleteRegion removes a custom region created by user
	DeleteRegion(ctx context.Context, user model.AuthUser, id string) error

	// SeedRegions inserts the static regions that are not stored yet
	SeedRegions(ctx context.Context, regions []entity.Region) (int64, error)

	GetWatchlist(ctx context.Context, user model.AuthUser) ([]entity.Region, error)
	AddToWatchlist(ctx context.Context, user model.AuthUser, regionID string) ([]entity.Region, error)
	RemoveFromWatchlist(ctx context.Context, user model.AuthUser, regionID string) ([]entity.Region, error)

	// FindBloomSites lists parks, gardens, orchards and reserves within radiusKm of the region
	FindBloomSites(ctx context.Context, id string, radiusKm float64) (*model.BloomSites, error)

	// WarmClimateCache fetches the default climate window and NDVI of every stored region so the
	// response caches are filled. It returns how many regions succeeded and failed.
	WarmClimateCache(ctx context.Context, batchSize int) (int, int, error)
}

type Options struct {
	MaxWatchlist    int
	DefaultRadiusKm float64
	MaxRadiusKm     float64
}
