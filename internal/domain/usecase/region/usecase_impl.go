package region

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bloomwatch/internal/domain/entity"
	"bloomwatch/internal/domain/gateway/api"
	"bloomwatch/internal/domain/gateway/db"
	"bloomwatch/internal/domain/model"
	"bloomwatch/internal/domain/usecase/climate"
	"bloomwatch/pkg/log"
	"bloomwatch/pkg/msg"
)

const maxNameLength = 120

type regionUseCase struct {
	regions   db.RegionGateway
	watchlist db.WatchlistGateway
	climate   climate.UseCase
	sites     api.SiteGateway
	opts      Options
}

func NewRegionUseCase(regions db.RegionGateway, watchlist db.WatchlistGateway, climateUseCase climate.UseCase, sites api.SiteGateway, opts Options) UseCase {
	if opts.MaxWatchlist <= 0 {
		opts.MaxWatchlist = 24
	}
	if opts.DefaultRadiusKm <= 0 {
		opts.DefaultRadiusKm = 10
	}
	if opts.MaxRadiusKm <= 0 {
		opts.MaxRadiusKm = 50
	}
	return &regionUseCase{
		regions:   regions,
		watchlist: watchlist,
		climate:   climateUseCase,
		sites:     sites,
		opts:      opts,
	}
}

func (uc *regionUseCase) ListRegions(ctx context.Context, page int, size int, namePrefix string) (*model.Page[entity.Region], error) {
	var wg sync.WaitGroup
	var regions []entity.Region
	var totalElements int64
	var regionsErr, countErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		regions, regionsErr = uc.regions.FindAll(ctx, page, size, namePrefix)
	}()
	go func() {
		defer wg.Done()
		totalElements, countErr = uc.regions.Count(ctx, namePrefix)
	}()
	wg.Wait()

	if regionsErr != nil {
		return nil, fmt.Errorf("failed to find regions: %w", regionsErr)
	}
	if countErr != nil {
		return nil, fmt.Errorf("failed to count regions: %w", countErr)
	}
	return model.NewPage(regions, page, size, totalElements), nil
}

func (uc *regionUseCase) GetRegion(ctx context.Context, id string) (*entity.Region, error) {
	region, err := uc.regions.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find region %s: %w", id, err)
	}
	if region == nil {
		return nil, model.NotFound("%s", msg.GetMessage("region.error.not-found", id))
	}
	return region, nil
}

func (uc *regionUseCase) ResolveRegions(ctx context.Context, ids []string) (map[string]entity.Region, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	found, err := uc.regions.FindByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to load regions: %w", err)
	}
	byID := make(map[string]entity.Region, len(found))
	for _, r := range found {
		byID[r.ID] = r
	}
	return byID, nil
}

func (uc *regionUseCase) CreateRegion(ctx context.Context, user model.AuthUser, dto model.CreateRegionDTO) (*entity.Region, error) {
	name := strings.TrimSpace(dto.Name)
	if name == "" || len(name) > maxNameLength {
		return nil, model.InvalidInput("%s", msg.GetMessage("region.error.name-required"))
	}
	if err := uc.climate.ValidateCoordinates(dto.Latitude, dto.Longitude); err != nil {
		return nil, err
	}
	bloomDate := strings.TrimSpace(dto.LastBloomDate)
	if bloomDate != "" {
		if _, err := time.Parse(time.DateOnly, bloomDate); err != nil {
			return nil, model.InvalidInput("%s", msg.GetMessage("region.error.invalid-bloom-date", bloomDate))
		}
	}

	ndvi, err := uc.climate.GetNdviSeries(ctx, dto.Latitude, dto.Longitude, 0)
	if err != nil {
		return nil, err
	}

	created, err := uc.regions.Create(ctx, entity.Region{
		ID:            uuid.NewString(),
		Name:          name,
		Latitude:      dto.Latitude,
		Longitude:     dto.Longitude,
		Ndvi:          ndvi.Readings,
		LastBloomDate: bloomDate,
		Custom:        true,
		CreatedBy:     user.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create region: %w", err)
	}
	log.Infow("custom region created", "regionId", created.ID, "userId", user.ID)
	return created, nil
}

func (uc *regionUseCase) DeleteRegion(ctx context.Context, user model.AuthUser, id string) error {
	region, err := uc.GetRegion(ctx, id)
	if err != nil {
		return err
	}
	if !region.Custom {
		return model.Forbidden("%s", msg.GetMessage("region.error.not-custom"))
	}
	if region.CreatedBy != user.ID {
		return model.Forbidden("%s", msg.GetMessage("region.error.not-owner"))
	}
	if err = uc.regions.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete region %s: %w", id, err)
	}
	return nil
}

func (uc *regionUseCase) SeedRegions(ctx context.Context, regions []entity.Region) (int64, error) {
	inserted, err := uc.regions.InsertMissing(ctx, regions)
	if err != nil {
		return 0, fmt.Errorf("failed to seed regions: %w", err)
	}
	log.Info(msg.GetMessage("region.seeded", inserted))
	return inserted, nil
}

func (uc *regionUseCase) GetWatchlist(ctx context.Context, user model.AuthUser) ([]entity.Region, error) {
	entries, err := uc.watchlist.FindByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}
	regions := make([]entity.Region, 0, len(entries))
	for _, e := range entries {
		regions = append(regions, e.Region)
	}
	return regions, nil
}

func (uc *regionUseCase) AddToWatchlist(ctx context.Context, user model.AuthUser, regionID string) ([]entity.Region, error) {
	if _, err := uc.GetRegion(ctx, regionID); err != nil {
		return nil, err
	}

	current, err := uc.GetWatchlist(ctx, user)
	if err != nil {
		return nil, err
	}
	for _, r := range current {
		if r.ID == regionID {
			return current, nil
		}
	}
	if len(current) >= uc.opts.MaxWatchlist {
		return nil, model.InvalidInput("%s", msg.GetMessage("watchlist.error.full", uc.opts.MaxWatchlist))
	}

	if _, err = uc.watchlist.Append(ctx, user.ID, regionID); err != nil {
		return nil, fmt.Errorf("failed to add region %s to watchlist: %w", regionID, err)
	}
	return uc.GetWatchlist(ctx, user)
}

func (uc *regionUseCase) RemoveFromWatchlist(ctx context.Context, user model.AuthUser, regionID string) ([]entity.Region, error) {
	removed, err := uc.watchlist.Remove(ctx, user.ID, regionID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove region %s from watchlist: %w", regionID, err)
	}
	if !removed {
		return nil, model.NotFound("%s", msg.GetMessage("region.error.not-found", regionID))
	}
	return uc.GetWatchlist(ctx, user)
}

func (uc *regionUseCase) FindBloomSites(ctx context.Context, id string, radiusKm float64) (*model.BloomSites, error) {
	if radiusKm == 0 {
		radiusKm = uc.opts.DefaultRadiusKm
	}
	if radiusKm < 0 || radiusKm > uc.opts.MaxRadiusKm {
		return nil, model.InvalidInput("%s", msg.GetMessage("region.error.invalid-radius", uc.opts.MaxRadiusKm))
	}

	region, err := uc.GetRegion(ctx, id)
	if err != nil {
		return nil, err
	}

	sites, err := uc.sites.FindBloomSites(ctx, region.Latitude, region.Longitude, radiusKm)
	if err != nil {
		return nil, err
	}
	return &model.BloomSites{Region: *region, RadiusKm: radiusKm, Sites: sites}, nil
}

func (uc *regionUseCase) WarmClimateCache(ctx context.Context, batchSize int) (int, int, error) {
	total, err := uc.regions.Count(ctx, "")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count regions: %w", err)
	}
	log.Info(msg.GetMessage("climate.warm.start", total))

	var ok, failed int
	err = uc.regions.FindInBatches(ctx, batchSize, func(regions []entity.Region) error {
		for _, r := range regions {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := uc.warmRegion(ctx, r); err != nil {
				log.Warnw("failed to warm region", "regionId", r.ID, "error", err)
				failed++
				continue
			}
			ok++
		}
		return nil
	})
	if err != nil {
		return ok, failed, fmt.Errorf("climate cache warm interrupted: %w", err)
	}

	log.Info(msg.GetMessage("climate.warm.end", ok, failed))
	return ok, failed, nil
}

func (uc *regionUseCase) warmRegion(ctx context.Context, r entity.Region) error {
	months, err := uc.climate.NormalizeMonths(0)
	if err != nil {
		return err
	}
	if _, err = uc.climate.GetClimateSeries(ctx, r.Latitude, r.Longitude, months); err != nil {
		return err
	}
	_, err = uc.climate.GetNdviSeries(ctx, r.Latitude, r.Longitude, 0)
	return err
}
