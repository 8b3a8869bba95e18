package api

import (
	"context"
	"time"

	"bloomwatch/internal/domain/model/external"
)

const (
	ParamTemperature = "T2M"
	ParamRainfall    = "PRECTOTCORR"
	ParamInsolation  = "ALLSKY_SFC_SW_DWN"
)

// PowerGateway defines the NASA POWER point API calls
type PowerGateway interface {
	// GetDailyPoint returns daily values of params between start and end (inclusive)
	GetDailyPoint(ctx context.Context, lat, lon float64, start, end time.Time, params []string) (*external.PowerResponse, error)

	// GetMonthlyPoint returns monthly values of params for the years startYear..endYear.
	// Keys are YYYYMM, MM=13 holds the annual value.
	GetMonthlyPoint(ctx context.Context, lat, lon float64, startYear, endYear int, params []string) (*external.PowerResponse, error)
}
