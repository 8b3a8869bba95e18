package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bloomwatch/internal/domain/model"
	"bloomwatch/internal/domain/usecase/region"
)

type WatchlistController struct {
	api         *echo.Group
	useCase     region.UseCase
	requireAuth echo.MiddlewareFunc
}

func NewWatchlistController(api *echo.Group, useCase region.UseCase, requireAuth echo.MiddlewareFunc) *WatchlistController {
	return &WatchlistController{api: api, useCase: useCase, requireAuth: requireAuth}
}

// InitWatchlistRoutes initializes watchlist routes, all of them require a user
func (controller *WatchlistController) InitWatchlistRoutes() {
	group := controller.api.Group("/watchlist", controller.requireAuth)
	group.GET("", controller.Get)
	group.POST("", controller.Add)
	group.POST("/:regionId", controller.Add)
	group.DELETE("/:regionId", controller.Remove)
}

// Get godoc
// @Summary Get watchlist
// @Description Returns the regions saved by the current user in insertion order
// @Tags watchlist
// @Produce json
// @Security BearerAuth
// @Success 200 {array} entity.Region
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Router /watchlist [get]
func (controller *WatchlistController) Get(c echo.Context) error {
	user, err := authUser(c)
	if err != nil {
		return errorResponse(c, err)
	}
	regions, err := controller.useCase.GetWatchlist(c.Request().Context(), user)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, regions)
}

// Add godoc
// @Summary Add a region to the watchlist
// @Description The region id comes from the path or from the body. Adding a saved region is a no-op.
// @Tags watchlist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param regionId path string false "Region id"
// @Param body body model.AddWatchlistDTO false "Region id when not in the path"
// @Success 200 {array} entity.Region
// @Failure 400 {object} map[string]string "Watchlist full or missing region id"
// @Failure 404 {object} map[string]string "Region not found"
// @Router /watchlist/{regionId} [post]
func (controller *WatchlistController) Add(c echo.Context) error {
	user, err := authUser(c)
	if err != nil {
		return errorResponse(c, err)
	}

	regionID := c.Param("regionId")
	if regionID == "" {
		var dto model.AddWatchlistDTO
		if err = c.Bind(&dto); err != nil || dto.RegionID == "" {
			return invalidBody(c)
		}
		regionID = dto.RegionID
	}

	regions, err := controller.useCase.AddToWatchlist(c.Request().Context(), user, regionID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, regions)
}

// Remove godoc
// @Summary Remove a region from the watchlist
// @Tags watchlist
// @Produce json
// @Security BearerAuth
// @Param regionId path string true "Region id"
// @Success 200 {array} entity.Region
// @Failure 404 {object} map[string]string "Region not in the watchlist"
// @Router /watchlist/{regionId} [delete]
func (controller *WatchlistController) Remove(c echo.Context) error {
	user, err := authUser(c)
	if err != nil {
		return errorResponse(c, err)
	}
	regions, err := controller.useCase.RemoveFromWatchlist(c.Request().Context(), user, c.Param("regionId"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, regions)
}
