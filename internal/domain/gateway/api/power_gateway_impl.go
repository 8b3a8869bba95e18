package api

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"bloomwatch/internal/domain/model"
	"bloomwatch/internal/domain/model/external"
	"bloomwatch/pkg/http"
	"bloomwatch/pkg/metrics"
)

const (
	powerDailyPath   = "/api/temporal/daily/point"
	powerMonthlyPath = "/api/temporal/monthly/point"
)

type powerGatewayImpl struct {
	httpClient *http.Client
	community  string
	metrics    *metrics.Collector
}

// NewPowerGateway creates a PowerGateway against baseUrl (https://power.larc.nasa.gov)
func NewPowerGateway(baseUrl string, community string, clientOptions http.ClientOptions, collector *metrics.Collector) PowerGateway {
	if community == "" {
		community = "AG"
	}
	return &powerGatewayImpl{
		httpClient: http.NewHttpClient(baseUrl, clientOptions),
		community:  community,
		metrics:    collector,
	}
}

func (p *powerGatewayImpl) GetDailyPoint(ctx context.Context, lat, lon float64, start, end time.Time, params []string) (*external.PowerResponse, error) {
	query := p.baseQuery(lat, lon, params)
	query["start"] = start.Format("20060102")
	query["end"] = end.Format("20060102")
	return p.fetch(ctx, powerDailyPath, query)
}

func (p *powerGatewayImpl) GetMonthlyPoint(ctx context.Context, lat, lon float64, startYear, endYear int, params []string) (*external.PowerResponse, error) {
	query := p.baseQuery(lat, lon, params)
	query["start"] = strconv.Itoa(startYear)
	query["end"] = strconv.Itoa(endYear)
	return p.fetch(ctx, powerMonthlyPath, query)
}

func (p *powerGatewayImpl) baseQuery(lat, lon float64, params []string) map[string]string {
	return map[string]string{
		"parameters": strings.Join(params, ","),
		"community":  p.community,
		"latitude":   strconv.FormatFloat(lat, 'f', 4, 64),
		"longitude":  strconv.FormatFloat(lon, 'f', 4, 64),
		"format":     "JSON",
	}
}

func (p *powerGatewayImpl) fetch(ctx context.Context, path string, query map[string]string) (*external.PowerResponse, error) {
	timer := time.Now()

	successResp, errResp, status, err := p.httpClient.Request().
		WithContext(ctx).
		WithMethod(http.GET).
		WithPath(path).
		WithQueryParams(query).
		WithSuccessResp(&external.PowerResponse{}).
		WithErrorResp(&external.PowerErrorResponse{}).
		Execute()

	p.metrics.RecordUpstream("power", err, time.Since(timer))

	if err == nil {
		response := successResp.(*external.PowerResponse)
		if len(response.Properties.Parameter) == 0 {
			return nil, model.Upstream(nil, "NASA POWER returned no parameters: %s", strings.Join(response.Messages, "; "))
		}
		return response, nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	if errResp != nil {
		errorResponse := errResp.(*external.PowerErrorResponse)
		if len(errorResponse.Messages) > 0 {
			reason := strings.Join(errorResponse.Messages, "; ")
			if status == 422 {
				return nil, model.InvalidInput("NASA POWER rejected the request: %s", reason)
			}
			return nil, model.Upstream(err, "NASA POWER error: %s", reason)
		}
	}

	return nil, model.Upstream(err, "NASA POWER request failed with status %d", status)
}
