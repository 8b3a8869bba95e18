package controller

import (
	"github.com/labstack/echo/v4"

	"bloomwatch/internal/domain/model"
	"bloomwatch/pkg/msg"
	"bloomwatch/pkg/util/numberutils"
)

// coordinates reads the lat and lon query parameters, range checks are left to the climate use case
func coordinates(c echo.Context) (float64, float64, error) {
	latParam, lonParam := c.QueryParam("lat"), c.QueryParam("lon")
	lat, latErr := numberutils.ToFloat64(latParam)
	lon, lonErr := numberutils.ToFloat64(lonParam)
	if latErr != nil || lonErr != nil {
		return 0, 0, model.InvalidInput("%s", msg.GetMessage("climate.error.invalid-coordinates", latParam, lonParam))
	}
	return lat, lon, nil
}

func floatQueryParam(c echo.Context, name string) (float64, error) {
	value := c.QueryParam(name)
	if value == "" {
		return 0, nil
	}
	f, err := numberutils.ToFloat64(value)
	if err != nil {
		return 0, model.InvalidInput("invalid %s: %s", name, value)
	}
	return f, nil
}

func intQueryParam(c echo.Context, name string) (int, error) {
	value := c.QueryParam(name)
	if value == "" {
		return 0, nil
	}
	f, err := numberutils.ToFloat64(value)
	if err != nil || f != float64(int(f)) {
		return 0, model.InvalidInput("invalid %s: %s", name, value)
	}
	return int(f), nil
}
