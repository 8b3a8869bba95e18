package climate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloomwatch/internal/domain/gateway/api"
	"bloomwatch/internal/domain/model"
	"bloomwatch/internal/domain/model/external"
)

type fakePower struct {
	daily      *external.PowerResponse
	monthly    *external.PowerResponse
	err        error
	dailyStart time.Time
	dailyEnd   time.Time
	years      [2]int
	params     []string
}

func (f *fakePower) GetDailyPoint(_ context.Context, _, _ float64, start, end time.Time, params []string) (*external.PowerResponse, error) {
	f.dailyStart, f.dailyEnd, f.params = start, end, params
	return f.daily, f.err
}

func (f *fakePower) GetMonthlyPoint(_ context.Context, _, _ float64, startYear, endYear int, params []string) (*external.PowerResponse, error) {
	f.years, f.params = [2]int{startYear, endYear}, params
	return f.monthly, f.err
}

func fixedClock() time.Time {
	return time.Date(2025, time.March, 10, 15, 30, 0, 0, time.UTC)
}

func newUseCase(power api.PowerGateway) UseCase {
	return NewClimateUseCase(power, Options{LagDays: 5, DefaultMonths: 3, MaxMonths: 24, Clock: fixedClock})
}

func powerResponse(parameter map[string]map[string]float64) *external.PowerResponse {
	return &external.PowerResponse{Properties: external.PowerProperties{Parameter: parameter}}
}

func TestGetClimateSeriesBucketsMonthsChronologically(t *testing.T) {
	power := &fakePower{daily: powerResponse(map[string]map[string]float64{
		api.ParamTemperature: {
			"20250105": 4, "20250106": 6, "20250107": -999,
			"20241230": 2,
			"20250301": 10, "20250302": 12,
			"20250201": -999,
		},
		api.ParamRainfall: {
			"20250105": 1.5, "20250106": 0.25, "20250107": 3,
			"20241230": 7,
			"20250301": 0, "20250302": 2.2,
			"20250201": 4,
		},
	})}

	series, err := newUseCase(power).GetClimateSeries(context.Background(), 35.0116, 135.7681, 0)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), power.dailyStart)
	assert.Equal(t, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), power.dailyEnd)
	assert.Equal(t, []string{api.ParamTemperature, api.ParamRainfall}, power.params)
	assert.Equal(t, "2025-01-01", series.Start)
	assert.Equal(t, "2025-03-05", series.End)

	require.Len(t, series.Points, 2)
	assert.Equal(t, model.ClimateDataPoint{Month: "2025-01", Label: "Jan 2025", Temperature: 5, Rainfall: 1.75, Days: 2}, series.Points[0])
	assert.Equal(t, model.ClimateDataPoint{Month: "2025-03", Label: "Mar 2025", Temperature: 11, Rainfall: 2.2, Days: 2}, series.Points[1])
}

func TestGetClimateSeriesWindowCrossesYear(t *testing.T) {
	power := &fakePower{daily: powerResponse(map[string]map[string]float64{
		api.ParamTemperature: {"20240915": 20},
		api.ParamRainfall:    {"20240915": 1},
	})}

	_, err := newUseCase(power).GetClimateSeries(context.Background(), 10, 10, 7)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), power.dailyStart)
}

func TestGetClimateSeriesHonoursHeaderFillValue(t *testing.T) {
	fill := -1.0
	response := powerResponse(map[string]map[string]float64{
		api.ParamTemperature: {"20250201": -1, "20250202": -999},
		api.ParamRainfall:    {"20250201": 1, "20250202": 2},
	})
	response.Header.FillValue = &fill

	series, err := newUseCase(&fakePower{daily: response}).GetClimateSeries(context.Background(), 1, 1, 3)
	require.NoError(t, err)
	require.Len(t, series.Points, 1)
	assert.Equal(t, -999.0, series.Points[0].Temperature)
	assert.Equal(t, 1, series.Points[0].Days)
}

func TestGetClimateSeriesValidation(t *testing.T) {
	uc := newUseCase(&fakePower{})
	ctx := context.Background()

	_, err := uc.GetClimateSeries(ctx, 91, 0, 6)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = uc.GetClimateSeries(ctx, 0, -181, 6)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = uc.GetClimateSeries(ctx, 0, 0, 25)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = uc.GetClimateSeries(ctx, 0, 0, -1)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestGetClimateSeriesNoValidDays(t *testing.T) {
	power := &fakePower{daily: powerResponse(map[string]map[string]float64{
		api.ParamTemperature: {"20250201": -999},
		api.ParamRainfall:    {"20250201": -999},
	})}
	_, err := newUseCase(power).GetClimateSeries(context.Background(), 1, 1, 3)
	assert.ErrorIs(t, err, model.ErrUpstream)
}

func TestGetClimateSeriesPropagatesGatewayError(t *testing.T) {
	boom := model.Upstream(errors.New("timeout"), "NASA POWER request failed")
	_, err := newUseCase(&fakePower{err: boom}).GetClimateSeries(context.Background(), 1, 1, 3)
	assert.ErrorIs(t, err, model.ErrUpstream)
}

func TestGetNdviSeriesReordersAndFillsGaps(t *testing.T) {
	power := &fakePower{monthly: powerResponse(map[string]map[string]float64{
		api.ParamInsolation: {
			"202413": 4.5,
			"202412": 2.0, "202411": 2.5, "202410": -999,
			"202403": 3.1, "202404": 4.2, "202405": 5.3, "202406": 6.4,
			"202407": 6.6, "202408": 5.9, "202409": 4.8,
			"202401": -999,
		},
	})}

	series, err := newUseCase(power).GetNdviSeries(context.Background(), 35, 139, 0)
	require.NoError(t, err)

	assert.Equal(t, [2]int{2024, 2024}, power.years)
	assert.Equal(t, 2024, series.Year)
	require.Len(t, series.Readings, 12)

	months := make([]string, 0, 12)
	values := make([]float64, 0, 12)
	for _, r := range series.Readings {
		months = append(months, r.Month)
		values = append(values, r.Value)
	}
	assert.Equal(t, []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}, months)
	assert.Equal(t, []float64{3.1, 3.1, 3.1, 4.2, 5.3, 6.4, 6.6, 5.9, 4.8, 4.8, 2.5, 2.0}, values)
}

func TestGetNdviSeriesAllMissing(t *testing.T) {
	power := &fakePower{monthly: powerResponse(map[string]map[string]float64{
		api.ParamInsolation: {"202301": -999, "202313": -999},
	})}
	_, err := newUseCase(power).GetNdviSeries(context.Background(), 35, 139, 2023)
	assert.ErrorIs(t, err, model.ErrUpstream)
}

func TestGetNdviSeriesYearRange(t *testing.T) {
	uc := newUseCase(&fakePower{})
	_, err := uc.GetNdviSeries(context.Background(), 0, 0, 1980)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = uc.GetNdviSeries(context.Background(), 0, 0, 2025)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
