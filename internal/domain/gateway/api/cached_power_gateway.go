package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bloomwatch/internal/domain/model/external"
	"bloomwatch/pkg/log"
	"bloomwatch/pkg/metrics"
	"bloomwatch/pkg/msg"
	"bloomwatch/pkg/redis"
	"bloomwatch/pkg/util/numberutils"
)

// ResponseCache is the part of redis.Cache used by the POWER decorator
type ResponseCache interface {
	Name() string
	GetOrSet(ctx context.Context, key string, dest interface{}, setter func() (interface{}, error)) error
}

var _ ResponseCache = (*redis.Cache)(nil)

type cachedPowerGateway struct {
	next         PowerGateway
	dailyCache   ResponseCache
	monthlyCache ResponseCache
	metrics      *metrics.Collector
}

// NewCachedPowerGateway decorates next with read-through caches.
// Daily responses go to dailyCache and monthly ones to monthlyCache. Failed calls are never cached.
func NewCachedPowerGateway(next PowerGateway, dailyCache, monthlyCache ResponseCache, collector *metrics.Collector) PowerGateway {
	return &cachedPowerGateway{
		next:         next,
		dailyCache:   dailyCache,
		monthlyCache: monthlyCache,
		metrics:      collector,
	}
}

func (c *cachedPowerGateway) GetDailyPoint(ctx context.Context, lat, lon float64, start, end time.Time, params []string) (*external.PowerResponse, error) {
	key := fmt.Sprintf("daily:%s:%s-%s:%s", coordinateKey(lat, lon), start.Format("20060102"), end.Format("20060102"), strings.Join(params, ","))
	return c.readThrough(ctx, c.dailyCache, key, func() (*external.PowerResponse, error) {
		return c.next.GetDailyPoint(ctx, lat, lon, start, end, params)
	})
}

func (c *cachedPowerGateway) GetMonthlyPoint(ctx context.Context, lat, lon float64, startYear, endYear int, params []string) (*external.PowerResponse, error) {
	key := fmt.Sprintf("monthly:%s:%d-%d:%s", coordinateKey(lat, lon), startYear, endYear, strings.Join(params, ","))
	return c.readThrough(ctx, c.monthlyCache, key, func() (*external.PowerResponse, error) {
		return c.next.GetMonthlyPoint(ctx, lat, lon, startYear, endYear, params)
	})
}

func (c *cachedPowerGateway) readThrough(ctx context.Context, cache ResponseCache, key string, load func() (*external.PowerResponse, error)) (*external.PowerResponse, error) {
	if cache == nil {
		return load()
	}

	var response external.PowerResponse
	missed := false
	err := cache.GetOrSet(ctx, key, &response, func() (interface{}, error) {
		missed = true
		return load()
	})
	c.metrics.RecordCache(cache.Name(), !missed)
	if err != nil {
		return nil, err
	}

	if missed {
		log.Debug(msg.GetMessage("climate.cache.miss", key))
	} else {
		log.Debug(msg.GetMessage("climate.cache.hit", key))
	}
	return &response, nil
}

// coordinateKey rounds to 0.01°, well below the POWER grid resolution
func coordinateKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f:%.2f", numberutils.Round(lat, 2), numberutils.Round(lon, 2))
}
