package climate

import (
	"context"
	"time"

	"bloomwatch/internal/domain/model"
)

type UseCase interface {
	// GetClimateSeries buckets the daily temperature and rainfall of the last months into calendar months
	GetClimateSeries(ctx context.Context, lat, lon float64, months int) (*model.ClimateSeries, error)

	// GetNdviSeries returns the Jan..Dec insolation proxy of year, zero means the last full year
	GetNdviSeries(ctx context.Context, lat, lon float64, year int) (*model.NdviSeries, error)

	// ValidateCoordinates rejects points outside lat [-90,90] and lon [-180,180]
	ValidateCoordinates(lat, lon float64) error

	// NormalizeMonths applies the default window to zero and rejects values above the maximum
	NormalizeMonths(months int) (int, error)
}

type Options struct {
	LagDays       int
	DefaultMonths int
	MaxMonths     int
	// Clock defaults to time.Now
	Clock func() time.Time
}
