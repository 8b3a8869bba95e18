package dashboard

import (
	"context"

	"bloomwatch/internal/domain/model"
)

type UseCase interface {
	// LoadDashboard fetches climate and NDVI for every selected region, items follow the selection order
	LoadDashboard(ctx context.Context, request model.DashboardRequest) (*model.Dashboard, error)
}

type Options struct {
	MaxRegions  int
	Concurrency int
}
