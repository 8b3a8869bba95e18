package dashboard

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"bloomwatch/internal/domain/entity"
	"bloomwatch/internal/domain/model"
	"bloomwatch/internal/domain/usecase/batch"
	"bloomwatch/internal/domain/usecase/climate"
	"bloomwatch/pkg/log"
	"bloomwatch/pkg/metrics"
	"bloomwatch/pkg/msg"
)

// RegionResolver is satisfied by region.UseCase
type RegionResolver interface {
	ResolveRegions(ctx context.Context, ids []string) (map[string]entity.Region, error)
}

type dashboardUseCase struct {
	regions   RegionResolver
	climate   climate.UseCase
	collector *metrics.Collector
	opts      Options
}

func NewDashboardUseCase(regions RegionResolver, climateUseCase climate.UseCase, collector *metrics.Collector, opts Options) UseCase {
	if opts.MaxRegions <= 0 {
		opts.MaxRegions = 12
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &dashboardUseCase{
		regions:   regions,
		climate:   climateUseCase,
		collector: collector,
		opts:      opts,
	}
}

func (uc *dashboardUseCase) LoadDashboard(ctx context.Context, request model.DashboardRequest) (*model.Dashboard, error) {
	ids, err := batch.Validate(request.RegionIDs, uc.opts.MaxRegions)
	if err != nil {
		return nil, err
	}
	months, err := uc.climate.NormalizeMonths(request.Months)
	if err != nil {
		return nil, err
	}

	resolved, err := uc.regions.ResolveRegions(ctx, ids)
	if err != nil {
		return nil, err
	}
	uc.collector.ObserveBatch("dashboard", len(ids))

	results := batch.Run(ctx, ids, uc.opts.Concurrency, func(ctx context.Context, id string) (model.DashboardItem, error) {
		r, ok := resolved[id]
		if !ok {
			return model.DashboardItem{}, model.NotFound("%s", msg.GetMessage("region.error.not-found", id))
		}
		return uc.loadRegion(ctx, r, months)
	})

	items := make([]model.DashboardItem, len(results))
	for i, result := range results {
		if result.Err != nil {
			log.Warnw("dashboard item failed", "regionId", result.ID, "error", result.Err)
			items[i] = model.DashboardItem{RegionID: result.ID, Error: model.PublicMessage(result.Err)}
			continue
		}
		items[i] = result.Value
	}
	return &model.Dashboard{Months: months, Items: items}, nil
}

// loadRegion fetches climate and NDVI concurrently.
// A failed NDVI fetch falls back to the readings stored with the region.
func (uc *dashboardUseCase) loadRegion(ctx context.Context, r entity.Region, months int) (model.DashboardItem, error) {
	var climateSeries *model.ClimateSeries
	var ndviSeries *model.NdviSeries
	var ndviErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		climateSeries, err = uc.climate.GetClimateSeries(gctx, r.Latitude, r.Longitude, months)
		return err
	})
	g.Go(func() error {
		ndviSeries, ndviErr = uc.climate.GetNdviSeries(gctx, r.Latitude, r.Longitude, 0)
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.DashboardItem{}, err
	}

	item := model.DashboardItem{RegionID: r.ID, Region: &r, Climate: climateSeries.Points}
	switch {
	case ndviErr == nil:
		item.Ndvi = ndviSeries.Readings
	case len(r.Ndvi) == 12 && !errors.Is(ndviErr, context.Canceled):
		log.Warnw("using stored ndvi", "regionId", r.ID, "error", ndviErr)
		item.Ndvi = r.Ndvi
	default:
		return model.DashboardItem{}, ndviErr
	}
	return item, nil
}
