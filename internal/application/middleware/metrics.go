package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"bloomwatch/pkg/metrics"
)

// RecordMetrics counts requests by route template so path parameters do not explode label cardinality
func RecordMetrics(collector *metrics.Collector) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			started := time.Now()
			err := next(c)

			status := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			collector.RecordHTTPRequest(route, c.Request().Method, strconv.Itoa(status), time.Since(started))
			return err
		}
	}
}
