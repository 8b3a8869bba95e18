package climate

import (
	"context"
	"math"
	"sort"
	"strconv"
	"time"

	"bloomwatch/internal/domain/entity"
	"bloomwatch/internal/domain/gateway/api"
	"bloomwatch/internal/domain/model"
	"bloomwatch/internal/domain/model/external"
	"bloomwatch/pkg/msg"
	"bloomwatch/pkg/util/numberutils"
)

// FirstPowerYear is the first year served by the monthly POWER endpoint
const FirstPowerYear = 1981

const dayLayout = "20060102"

type climateUseCase struct {
	power         api.PowerGateway
	lagDays       int
	defaultMonths int
	maxMonths     int
	clock         func() time.Time
}

func NewClimateUseCase(power api.PowerGateway, opts Options) UseCase {
	if opts.DefaultMonths <= 0 {
		opts.DefaultMonths = 6
	}
	if opts.MaxMonths <= 0 {
		opts.MaxMonths = 24
	}
	if opts.LagDays < 0 {
		opts.LagDays = 0
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &climateUseCase{
		power:         power,
		lagDays:       opts.LagDays,
		defaultMonths: opts.DefaultMonths,
		maxMonths:     opts.MaxMonths,
		clock:         opts.Clock,
	}
}

func (uc *climateUseCase) ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return model.InvalidInput("%s", msg.GetMessage("climate.error.invalid-coordinates", lat, lon))
	}
	return nil
}

func (uc *climateUseCase) NormalizeMonths(months int) (int, error) {
	if months == 0 {
		months = uc.defaultMonths
	}
	if !numberutils.IsIntInRange(months, 1, uc.maxMonths) {
		return 0, model.InvalidInput("%s", msg.GetMessage("climate.error.invalid-months", uc.maxMonths))
	}
	return months, nil
}

// window returns the first and last day fetched for months
func (uc *climateUseCase) window(months int) (time.Time, time.Time) {
	now := uc.clock().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := today.AddDate(0, 0, -uc.lagDays)
	start := time.Date(end.Year(), end.Month()-time.Month(months-1), 1, 0, 0, 0, 0, time.UTC)
	return start, end
}

func (uc *climateUseCase) GetClimateSeries(ctx context.Context, lat, lon float64, months int) (*model.ClimateSeries, error) {
	if err := uc.ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	months, err := uc.NormalizeMonths(months)
	if err != nil {
		return nil, err
	}

	start, end := uc.window(months)
	response, err := uc.power.GetDailyPoint(ctx, lat, lon, start, end,
		[]string{api.ParamTemperature, api.ParamRainfall})
	if err != nil {
		return nil, err
	}

	points := bucketByMonth(response, start, end)
	if len(points) == 0 {
		return nil, model.Upstream(nil, "%s", msg.GetMessage("climate.error.no-data", "daily"))
	}

	return &model.ClimateSeries{
		Latitude:  lat,
		Longitude: lon,
		Start:     start.Format(time.DateOnly),
		End:       end.Format(time.DateOnly),
		Points:    points,
	}, nil
}

type monthBucket struct {
	temperature float64
	rainfall    float64
	days        int
}

// bucketByMonth averages T2M and sums PRECTOTCORR per calendar month.
// A day counts only when both values are valid.
func bucketByMonth(response *external.PowerResponse, start, end time.Time) []model.ClimateDataPoint {
	fill := response.FillValue()
	temperatures := response.Series(api.ParamTemperature)
	rainfall := response.Series(api.ParamRainfall)

	buckets := make(map[string]*monthBucket)
	for key, temp := range temperatures {
		day, err := time.Parse(dayLayout, key)
		if err != nil || day.Before(start) || day.After(end) {
			continue
		}
		rain, ok := rainfall[key]
		if !ok || !valid(temp, fill) || !valid(rain, fill) {
			continue
		}

		month := day.Format("2006-01")
		bucket, ok := buckets[month]
		if !ok {
			bucket = &monthBucket{}
			buckets[month] = bucket
		}
		bucket.temperature += temp
		bucket.rainfall += rain
		bucket.days++
	}

	keys := make([]string, 0, len(buckets))
	for month := range buckets {
		keys = append(keys, month)
	}
	sort.Strings(keys)

	points := make([]model.ClimateDataPoint, 0, len(keys))
	for _, month := range keys {
		bucket := buckets[month]
		first, _ := time.Parse("2006-01", month)
		points = append(points, model.ClimateDataPoint{
			Month:       month,
			Label:       first.Format("Jan 2006"),
			Temperature: numberutils.Round(bucket.temperature/float64(bucket.days), 2),
			Rainfall:    numberutils.Round(bucket.rainfall, 2),
			Days:        bucket.days,
		})
	}
	return points
}

func (uc *climateUseCase) GetNdviSeries(ctx context.Context, lat, lon float64, year int) (*model.NdviSeries, error) {
	if err := uc.ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	lastFullYear := uc.clock().UTC().Year() - 1
	if year == 0 {
		year = lastFullYear
	}
	if !numberutils.IsIntInRange(year, FirstPowerYear, lastFullYear) {
		return nil, model.InvalidInput("%s", msg.GetMessage("climate.error.invalid-year", FirstPowerYear, lastFullYear))
	}

	response, err := uc.power.GetMonthlyPoint(ctx, lat, lon, year, year, []string{api.ParamInsolation})
	if err != nil {
		return nil, err
	}

	readings, err := monthlyReadings(response, year)
	if err != nil {
		return nil, err
	}

	return &model.NdviSeries{
		Latitude:  lat,
		Longitude: lon,
		Year:      year,
		Readings:  readings,
	}, nil
}

// monthlyReadings orders the monthly values Jan..Dec, dropping the annual MM=13 entry.
// Missing months take the previous valid value, leading gaps take the first valid one.
func monthlyReadings(response *external.PowerResponse, year int) ([]entity.NdviReading, error) {
	fill := response.FillValue()
	series := response.Series(api.ParamInsolation)

	values := make([]float64, 12)
	present := make([]bool, 12)
	firstValid := -1
	prefix := strconv.Itoa(year)

	for month := 1; month <= 12; month++ {
		key := prefix + twoDigits(month)
		value, ok := series[key]
		if ok && valid(value, fill) {
			values[month-1] = value
			present[month-1] = true
			if firstValid < 0 {
				firstValid = month - 1
			}
		}
	}

	if firstValid < 0 {
		return nil, model.Upstream(nil, "%s", msg.GetMessage("climate.error.no-data", api.ParamInsolation))
	}

	for i := 0; i < firstValid; i++ {
		values[i] = values[firstValid]
	}
	for i := firstValid + 1; i < 12; i++ {
		if !present[i] {
			values[i] = values[i-1]
		}
	}

	readings := make([]entity.NdviReading, 12)
	for i := range readings {
		readings[i] = entity.NdviReading{
			Month: time.Month(i + 1).String()[:3],
			Value: numberutils.Round(values[i], 2),
		}
	}
	return readings, nil
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func valid(value, fill float64) bool {
	return !math.IsNaN(value) && value != fill
}
