package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bloomwatch/internal/domain/model"
	"bloomwatch/internal/domain/usecase/climate"
	"bloomwatch/internal/domain/usecase/region"
	"bloomwatch/pkg/util/numberutils"
)

type RegionController struct {
	api         *echo.Group
	useCase     region.UseCase
	climate     climate.UseCase
	requireAuth echo.MiddlewareFunc
}

func NewRegionController(api *echo.Group, useCase region.UseCase, climateUseCase climate.UseCase, requireAuth echo.MiddlewareFunc) *RegionController {
	return &RegionController{api: api, useCase: useCase, climate: climateUseCase, requireAuth: requireAuth}
}

// InitRegionRoutes initializes region routes
func (controller *RegionController) InitRegionRoutes() {
	controller.api.GET("/regions", controller.FindAll)
	controller.api.GET("/regions/:id", controller.FindByID)
	controller.api.GET("/regions/:id/climate", controller.GetClimate)
	controller.api.GET("/regions/:id/ndvi", controller.GetNdvi)
	controller.api.GET("/regions/:id/sites", controller.GetSites)
	controller.api.POST("/regions", controller.Create, controller.requireAuth)
	controller.api.DELETE("/regions/:id", controller.DeleteByID, controller.requireAuth)
}

// FindAll godoc
// @Summary List regions
// @Description Lists catalogue regions ordered by name with pagination and an optional name prefix filter
// @Tags regions
// @Produce json
// @Param page query int false "Page number" default(0)
// @Param size query int false "Page size" default(20)
// @Param namePrefix query string false "Name prefix to filter by"
// @Success 200 {object} model.Page[entity.Region]
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /regions [get]
func (controller *RegionController) FindAll(c echo.Context) error {
	page := numberutils.ClampInt(numberutils.ToIntWithDefault(c.QueryParam("page"), 0), 0, 1<<20)
	size := numberutils.ClampInt(numberutils.ToIntWithDefault(c.QueryParam("size"), 20), 1, 100)

	regions, err := controller.useCase.ListRegions(c.Request().Context(), page, size, c.QueryParam("namePrefix"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, regions)
}

// FindByID godoc
// @Summary Get region
// @Tags regions
// @Produce json
// @Param id path string true "Region id"
// @Success 200 {object} entity.Region
// @Failure 404 {object} map[string]string "Region not found"
// @Router /regions/{id} [get]
func (controller *RegionController) FindByID(c echo.Context) error {
	r, err := controller.useCase.GetRegion(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// GetClimate godoc
// @Summary Monthly climate of a region
// @Tags regions
// @Produce json
// @Param id path string true "Region id"
// @Param months query int false "Window size in months" default(6)
// @Success 200 {object} model.ClimateSeries
// @Failure 404 {object} map[string]string "Region not found"
// @Failure 502 {object} map[string]string "NASA POWER failure"
// @Router /regions/{id}/climate [get]
func (controller *RegionController) GetClimate(c echo.Context) error {
	months, err := intQueryParam(c, "months")
	if err != nil {
		return errorResponse(c, err)
	}
	r, err := controller.useCase.GetRegion(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	series, err := controller.climate.GetClimateSeries(c.Request().Context(), r.Latitude, r.Longitude, months)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, series)
}

// GetNdvi godoc
// @Summary Vegetation proxy of a region
// @Tags regions
// @Produce json
// @Param id path string true "Region id"
// @Param year query int false "Year, defaults to the last full year"
// @Success 200 {object} model.NdviSeries
// @Failure 404 {object} map[string]string "Region not found"
// @Failure 502 {object} map[string]string "NASA POWER failure"
// @Router /regions/{id}/ndvi [get]
func (controller *RegionController) GetNdvi(c echo.Context) error {
	year, err := intQueryParam(c, "year")
	if err != nil {
		return errorResponse(c, err)
	}
	r, err := controller.useCase.GetRegion(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	series, err := controller.climate.GetNdviSeries(c.Request().Context(), r.Latitude, r.Longitude, year)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, series)
}

// GetSites godoc
// @Summary Bloom sites near a region
// @Description Lists parks, gardens, orchards and nature reserves from OpenStreetMap around the region
// @Tags regions
// @Produce json
// @Param id path string true "Region id"
// @Param radiusKm query number false "Search radius in km" default(10)
// @Success 200 {object} model.BloomSites
// @Failure 400 {object} map[string]string "Invalid radius"
// @Failure 404 {object} map[string]string "Region not found"
// @Failure 502 {object} map[string]string "Overpass failure"
// @Router /regions/{id}/sites [get]
func (controller *RegionController) GetSites(c echo.Context) error {
	radius, err := floatQueryParam(c, "radiusKm")
	if err != nil {
		return errorResponse(c, err)
	}

	sites, err := controller.useCase.FindBloomSites(c.Request().Context(), c.Param("id"), radius)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, sites)
}

// Create godoc
// @Summary Create a custom region
// @Description Stores a region owned by the current user, its NDVI proxy is fetched from NASA POWER
// @Tags regions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param region body model.CreateRegionDTO true "Region data"
// @Success 201 {object} entity.Region
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Failure 502 {object} map[string]string "NASA POWER failure"
// @Router /regions [post]
func (controller *RegionController) Create(c echo.Context) error {
	user, err := authUser(c)
	if err != nil {
		return errorResponse(c, err)
	}
	var dto model.CreateRegionDTO
	if err = c.Bind(&dto); err != nil {
		return invalidBody(c)
	}

	created, err := controller.useCase.CreateRegion(c.Request().Context(), user, dto)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// DeleteByID godoc
// @Summary Delete a custom region
// @Tags regions
// @Security BearerAuth
// @Param id path string true "Region id"
// @Success 204 "Region deleted"
// @Failure 403 {object} map[string]string "Seed region or not the owner"
// @Failure 404 {object} map[string]string "Region not found"
// @Router /regions/{id} [delete]
func (controller *RegionController) DeleteByID(c echo.Context) error {
	user, err := authUser(c)
	if err != nil {
		return errorResponse(c, err)
	}
	if err = controller.useCase.DeleteRegion(c.Request().Context(), user, c.Param("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
