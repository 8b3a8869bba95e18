package api

import (
	"context"

	"bloomwatch/internal/domain/model"
)

// SiteGateway finds bloom sites (parks, gardens, orchards, reserves) around a point
type SiteGateway interface {
	FindBloomSites(ctx context.Context, lat, lon, radiusKm float64) ([]model.BloomSite, error)
}
