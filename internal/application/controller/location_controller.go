package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bloomwatch/internal/domain/usecase/location"
)

type LocationController struct {
	api     *echo.Group
	useCase location.UseCase
}

func NewLocationController(api *echo.Group, useCase location.UseCase) *LocationController {
	return &LocationController{api: api, useCase: useCase}
}

// InitLocationRoutes initializes location hierarchy routes
func (controller *LocationController) InitLocationRoutes() {
	controller.api.GET("/locations/countries", controller.ListCountries)
	controller.api.GET("/locations/countries/:country/states", controller.ListStates)
	controller.api.GET("/locations/countries/:country/states/:state/cities", controller.ListCities)
}

// ListCountries godoc
// @Summary List countries
// @Tags locations
// @Produce json
// @Success 200 {array} entity.Country
// @Router /locations/countries [get]
func (controller *LocationController) ListCountries(c echo.Context) error {
	return c.JSON(http.StatusOK, controller.useCase.ListCountries())
}

// ListStates godoc
// @Summary List states of a country
// @Tags locations
// @Produce json
// @Param country path string true "Country name"
// @Success 200 {array} entity.State
// @Failure 404 {object} map[string]string "Country not found"
// @Router /locations/countries/{country}/states [get]
func (controller *LocationController) ListStates(c echo.Context) error {
	states, err := controller.useCase.ListStates(c.Param("country"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, states)
}

// ListCities godoc
// @Summary List cities of a state
// @Tags locations
// @Produce json
// @Param country path string true "Country name"
// @Param state path string true "State name"
// @Success 200 {array} entity.City
// @Failure 404 {object} map[string]string "Country or state not found"
// @Router /locations/countries/{country}/states/{state}/cities [get]
func (controller *LocationController) ListCities(c echo.Context) error {
	cities, err := controller.useCase.ListCities(c.Param("country"), c.Param("state"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, cities)
}
