package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bloomwatch/internal/domain/usecase/climate"
)

type ClimateController struct {
	api     *echo.Group
	useCase climate.UseCase
}

func NewClimateController(api *echo.Group, useCase climate.UseCase) *ClimateController {
	return &ClimateController{api: api, useCase: useCase}
}

// InitClimateRoutes initializes climate routes
func (controller *ClimateController) InitClimateRoutes() {
	controller.api.GET("/climate", controller.GetClimate)
	controller.api.GET("/climate/ndvi", controller.GetNdvi)
}

// GetClimate godoc
// @Summary Monthly climate of a point
// @Description Buckets NASA POWER daily temperature and rainfall of the last months into calendar months
// @Tags climate
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Param months query int false "Window size in months" default(6)
// @Success 200 {object} model.ClimateSeries
// @Failure 400 {object} map[string]string "Invalid coordinates or months"
// @Failure 502 {object} map[string]string "NASA POWER failure"
// @Router /climate [get]
func (controller *ClimateController) GetClimate(c echo.Context) error {
	lat, lon, err := coordinates(c)
	if err != nil {
		return errorResponse(c, err)
	}
	months, err := intQueryParam(c, "months")
	if err != nil {
		return errorResponse(c, err)
	}

	series, err := controller.useCase.GetClimateSeries(c.Request().Context(), lat, lon, months)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, series)
}

// GetNdvi godoc
// @Summary Vegetation proxy of a point
// @Description Returns the 12 month Jan..Dec NDVI proxy (all sky surface insolation) of a year
// @Tags climate
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Param year query int false "Year, defaults to the last full year"
// @Success 200 {object} model.NdviSeries
// @Failure 400 {object} map[string]string "Invalid coordinates or year"
// @Failure 502 {object} map[string]string "NASA POWER failure"
// @Router /climate/ndvi [get]
func (controller *ClimateController) GetNdvi(c echo.Context) error {
	lat, lon, err := coordinates(c)
	if err != nil {
		return errorResponse(c, err)
	}
	year, err := intQueryParam(c, "year")
	if err != nil {
		return errorResponse(c, err)
	}

	series, err := controller.useCase.GetNdviSeries(c.Request().Context(), lat, lon, year)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, series)
}
