package region

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloomwatch/internal/domain/entity"
	"bloomwatch/internal/domain/model"
	"bloomwatch/internal/domain/usecase/climate"
)

type memoryRegions struct {
	mu   sync.Mutex
	byID map[string]entity.Region
}

func newMemoryRegions(regions ...entity.Region) *memoryRegions {
	m := &memoryRegions{byID: make(map[string]entity.Region)}
	for _, r := range regions {
		m.byID[r.ID] = r
	}
	return m
}

func (m *memoryRegions) sorted(prefix string) []entity.Region {
	out := make([]entity.Region, 0)
	for _, r := range m.byID {
		if strings.HasPrefix(strings.ToLower(r.Name), strings.ToLower(prefix)) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *memoryRegions) FindAll(_ context.Context, page, size int, prefix string) ([]entity.Region, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted(prefix)
	from := page * size
	if from >= len(all) {
		return []entity.Region{}, nil
	}
	to := from + size
	if to > len(all) {
		to = len(all)
	}
	return all[from:to], nil
}

func (m *memoryRegions) Count(_ context.Context, prefix string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.sorted(prefix))), nil
}

func (m *memoryRegions) FindByID(_ context.Context, id string) (*entity.Region, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memoryRegions) FindByIDs(_ context.Context, ids []string) ([]entity.Region, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.Region, 0)
	for _, id := range ids {
		if r, ok := m.byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryRegions) FindInBatches(_ context.Context, _ int, fn func([]entity.Region) error) error {
	return fn(m.sorted(""))
}

func (m *memoryRegions) Create(_ context.Context, r entity.Region) (*entity.Region, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[r.ID] = r
	return &r, nil
}

func (m *memoryRegions) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

func (m *memoryRegions) InsertMissing(_ context.Context, regions []entity.Region) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range regions {
		if _, ok := m.byID[r.ID]; !ok {
			m.byID[r.ID] = r
			n++
		}
	}
	return n, nil
}

type memoryWatchlist struct {
	regions *memoryRegions
	lists   map[string][]string
}

func (w *memoryWatchlist) FindByUser(_ context.Context, userID string) ([]entity.WatchlistEntry, error) {
	out := make([]entity.WatchlistEntry, 0)
	for i, id := range w.lists[userID] {
		out = append(out, entity.WatchlistEntry{UserID: userID, RegionID: id, Position: i, Region: w.regions.byID[id]})
	}
	return out, nil
}

func (w *memoryWatchlist) CountByUser(_ context.Context, userID string) (int64, error) {
	return int64(len(w.lists[userID])), nil
}

func (w *memoryWatchlist) Append(_ context.Context, userID, regionID string) (bool, error) {
	for _, id := range w.lists[userID] {
		if id == regionID {
			return false, nil
		}
	}
	w.lists[userID] = append(w.lists[userID], regionID)
	return true, nil
}

func (w *memoryWatchlist) Remove(_ context.Context, userID, regionID string) (bool, error) {
	list := w.lists[userID]
	for i, id := range list {
		if id == regionID {
			w.lists[userID] = append(list[:i:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type stubClimate struct {
	ndviCalls int
	failLat   float64
}

func (s *stubClimate) GetClimateSeries(_ context.Context, lat, _ float64, _ int) (*model.ClimateSeries, error) {
	if s.failLat != 0 && lat == s.failLat {
		return nil, model.Upstream(nil, "NASA POWER unavailable")
	}
	return &model.ClimateSeries{}, nil
}

func (s *stubClimate) GetNdviSeries(_ context.Context, lat, lon float64, year int) (*model.NdviSeries, error) {
	s.ndviCalls++
	readings := make([]entity.NdviReading, 12)
	for i := range readings {
		readings[i] = entity.NdviReading{Month: time.Month(i + 1).String()[:3], Value: float64(i)}
	}
	return &model.NdviSeries{Latitude: lat, Longitude: lon, Year: 2024, Readings: readings}, nil
}

func (s *stubClimate) ValidateCoordinates(lat, lon float64) error {
	return climate.NewClimateUseCase(nil, climate.Options{}).ValidateCoordinates(lat, lon)
}

func (s *stubClimate) NormalizeMonths(months int) (int, error) {
	return months, nil
}

type stubSites struct {
	radius float64
}

func (s *stubSites) FindBloomSites(_ context.Context, _, _, radiusKm float64) ([]model.BloomSite, error) {
	s.radius = radiusKm
	return []model.BloomSite{{ID: 1, Name: "Maruyama Park", Kind: "park"}}, nil
}

var (
	alice = model.AuthUser{ID: "alice"}
	bob   = model.AuthUser{ID: "bob"}
)

func fixture() (UseCase, *memoryRegions, *stubClimate, *stubSites) {
	regions := newMemoryRegions(
		entity.Region{ID: "kyoto", Name: "Kyoto"},
		entity.Region{ID: "keukenhof", Name: "Keukenhof"},
		entity.Region{ID: "washington", Name: "Washington DC"},
	)
	climateStub := &stubClimate{}
	sites := &stubSites{}
	watchlist := &memoryWatchlist{regions: regions, lists: map[string][]string{}}
	uc := NewRegionUseCase(regions, watchlist, climateStub, sites, Options{MaxWatchlist: 2, DefaultRadiusKm: 10, MaxRadiusKm: 50})
	return uc, regions, climateStub, sites
}

func ids(regions []entity.Region) []string {
	out := make([]string, 0, len(regions))
	for _, r := range regions {
		out = append(out, r.ID)
	}
	return out
}

func TestListRegionsPage(t *testing.T) {
	uc, _, _, _ := fixture()
	page, err := uc.ListRegions(context.Background(), 0, 2, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, []string{"keukenhof", "kyoto"}, ids(page.Content))
}

func TestGetRegionNotFound(t *testing.T) {
	uc, _, _, _ := fixture()
	_, err := uc.GetRegion(context.Background(), "atlantis")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestResolveRegionsDeduplicates(t *testing.T) {
	uc, _, _, _ := fixture()
	byID, err := uc.ResolveRegions(context.Background(), []string{"kyoto", "kyoto", "atlantis"})
	require.NoError(t, err)
	assert.Len(t, byID, 1)
	assert.Equal(t, "Kyoto", byID["kyoto"].Name)
}

func TestCreateRegionFetchesNdvi(t *testing.T) {
	uc, regions, climateStub, _ := fixture()
	created, err := uc.CreateRegion(context.Background(), alice, model.CreateRegionDTO{
		Name: "  Backyard Cherry ", Latitude: 35.1, Longitude: 139.2, LastBloomDate: "2024-03-30",
	})
	require.NoError(t, err)

	assert.Equal(t, "Backyard Cherry", created.Name)
	assert.True(t, created.Custom)
	assert.Equal(t, "alice", created.CreatedBy)
	assert.Len(t, created.Ndvi, 12)
	assert.Equal(t, 1, climateStub.ndviCalls)
	assert.NotEmpty(t, created.ID)
	assert.Contains(t, regions.byID, created.ID)
}

func TestCreateRegionValidation(t *testing.T) {
	uc, _, climateStub, _ := fixture()
	ctx := context.Background()

	_, err := uc.CreateRegion(ctx, alice, model.CreateRegionDTO{Name: " ", Latitude: 1, Longitude: 1})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = uc.CreateRegion(ctx, alice, model.CreateRegionDTO{Name: "X", Latitude: 100, Longitude: 1})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = uc.CreateRegion(ctx, alice, model.CreateRegionDTO{Name: "X", Latitude: 1, Longitude: 1, LastBloomDate: "30/03/2024"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Equal(t, 0, climateStub.ndviCalls)
}

func TestDeleteRegionRules(t *testing.T) {
	uc, regions, _, _ := fixture()
	ctx := context.Background()

	err := uc.DeleteRegion(ctx, alice, "kyoto")
	assert.ErrorIs(t, err, model.ErrForbidden)

	created, err := uc.CreateRegion(ctx, alice, model.CreateRegionDTO{Name: "Mine", Latitude: 1, Longitude: 1})
	require.NoError(t, err)

	err = uc.DeleteRegion(ctx, bob, created.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)

	require.NoError(t, uc.DeleteRegion(ctx, alice, created.ID))
	assert.NotContains(t, regions.byID, created.ID)

	err = uc.DeleteRegion(ctx, alice, created.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSeedRegionsIsIdempotent(t *testing.T) {
	uc, _, _, _ := fixture()
	seeds := []entity.Region{{ID: "holambra", Name: "Holambra"}, {ID: "kyoto", Name: "Kyoto"}}

	inserted, err := uc.SeedRegions(context.Background(), seeds)
	require.NoError(t, err)
	assert.Equal(t, int64(1), inserted)

	inserted, err = uc.SeedRegions(context.Background(), seeds)
	require.NoError(t, err)
	assert.Equal(t, int64(0), inserted)
}

func TestWatchlistOrderAndLimits(t *testing.T) {
	uc, _, _, _ := fixture()
	ctx := context.Background()

	list, err := uc.AddToWatchlist(ctx, alice, "washington")
	require.NoError(t, err)
	assert.Equal(t, []string{"washington"}, ids(list))

	list, err = uc.AddToWatchlist(ctx, alice, "kyoto")
	require.NoError(t, err)
	assert.Equal(t, []string{"washington", "kyoto"}, ids(list))

	list, err = uc.AddToWatchlist(ctx, alice, "washington")
	require.NoError(t, err)
	assert.Equal(t, []string{"washington", "kyoto"}, ids(list))

	_, err = uc.AddToWatchlist(ctx, alice, "keukenhof")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = uc.AddToWatchlist(ctx, alice, "atlantis")
	assert.ErrorIs(t, err, model.ErrNotFound)

	list, err = uc.RemoveFromWatchlist(ctx, alice, "washington")
	require.NoError(t, err)
	assert.Equal(t, []string{"kyoto"}, ids(list))

	_, err = uc.RemoveFromWatchlist(ctx, alice, "washington")
	assert.ErrorIs(t, err, model.ErrNotFound)

	other, err := uc.GetWatchlist(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestFindBloomSites(t *testing.T) {
	uc, _, _, sites := fixture()
	ctx := context.Background()

	result, err := uc.FindBloomSites(ctx, "kyoto", 0)
	require.NoError(t, err)
	assert.Equal(t, 10.0, result.RadiusKm)
	assert.Equal(t, 10.0, sites.radius)
	assert.Equal(t, "kyoto", result.Region.ID)
	assert.Len(t, result.Sites, 1)

	_, err = uc.FindBloomSites(ctx, "kyoto", 51)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = uc.FindBloomSites(ctx, "atlantis", 5)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestWarmClimateCacheCountsFailures(t *testing.T) {
	uc, regions, climateStub, _ := fixture()
	r := regions.byID["kyoto"]
	r.Latitude = 35.01
	regions.byID["kyoto"] = r
	climateStub.failLat = 35.01

	ok, failed, err := uc.WarmClimateCache(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 2, ok)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 2, climateStub.ndviCalls)
}

func TestWarmClimateCacheStopsOnCancel(t *testing.T) {
	uc, _, climateStub, _ := fixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := uc.WarmClimateCache(ctx, 50)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, climateStub.ndviCalls)
}
