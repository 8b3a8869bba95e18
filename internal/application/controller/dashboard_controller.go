package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bloomwatch/internal/domain/model"
	"bloomwatch/internal/domain/usecase/dashboard"
)

type DashboardController struct {
	api     *echo.Group
	useCase dashboard.UseCase
}

func NewDashboardController(api *echo.Group, useCase dashboard.UseCase) *DashboardController {
	return &DashboardController{api: api, useCase: useCase}
}

// InitDashboardRoutes initializes dashboard routes
func (controller *DashboardController) InitDashboardRoutes() {
	controller.api.POST("/dashboard", controller.Load)
}

// Load godoc
// @Summary Load the dashboard of selected regions
// @Description Fetches climate and NDVI of every selected region concurrently. Items keep the selection order and failed regions carry an error.
// @Tags dashboard
// @Accept json
// @Produce json
// @Param request body model.DashboardRequest true "Selected regions"
// @Success 200 {object} model.Dashboard
// @Failure 400 {object} map[string]string "Empty or oversized selection"
// @Router /dashboard [post]
func (controller *DashboardController) Load(c echo.Context) error {
	var request model.DashboardRequest
	if err := c.Bind(&request); err != nil {
		return invalidBody(c)
	}

	result, err := controller.useCase.LoadDashboard(c.Request().Context(), request)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
