package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bloomwatch/internal/domain/model"
	"bloomwatch/internal/domain/usecase/prediction"
	"bloomwatch/pkg/util/numberutils"
)

type PredictionController struct {
	api         *echo.Group
	useCase     prediction.UseCase
	requireAuth echo.MiddlewareFunc
}

func NewPredictionController(api *echo.Group, useCase prediction.UseCase, requireAuth echo.MiddlewareFunc) *PredictionController {
	return &PredictionController{api: api, useCase: useCase, requireAuth: requireAuth}
}

// InitPredictionRoutes initializes prediction routes, all of them require a user
func (controller *PredictionController) InitPredictionRoutes() {
	group := controller.api.Group("/predictions", controller.requireAuth)
	group.POST("", controller.Predict)
	group.POST("/batch", controller.PredictBatch)
	group.POST("/jobs", controller.SubmitJob)
	group.GET("/jobs/:id", controller.GetJob)
	group.GET("/history", controller.History)
}

// Predict godoc
// @Summary Predict the next bloom date
// @Description Sends the climate and NDVI of a catalogue region or an ad hoc point to the LLM and returns its shape-checked answer
// @Tags predictions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.PredictionRequest true "regionId, or name with latitude and longitude"
// @Success 200 {object} model.PredictionResult
// @Failure 400 {object} map[string]string "Missing region"
// @Failure 404 {object} map[string]string "Region not found"
// @Failure 429 {object} map[string]string "Rate limited"
// @Failure 502 {object} map[string]string "NASA POWER or LLM failure"
// @Router /predictions [post]
func (controller *PredictionController) Predict(c echo.Context) error {
	user, err := authUser(c)
	if err != nil {
		return errorResponse(c, err)
	}
	var request model.PredictionRequest
	if err = c.Bind(&request); err != nil {
		return invalidBody(c)
	}

	result, err := controller.useCase.Predict(c.Request().Context(), user, request)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// PredictBatch godoc
// @Summary Predict several regions
// @Description Items keep the selection order, failed regions carry an error instead of a result
// @Tags predictions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.BatchPredictionRequest true "Selected regions"
// @Success 200 {array} model.BatchPredictionItem
// @Failure 400 {object} map[string]string "Empty or oversized selection"
// @Failure 429 {object} map[string]string "Rate limited"
// @Router /predictions/batch [post]
func (controller *PredictionController) PredictBatch(c echo.Context) error {
	user, err := authUser(c)
	if err != nil {
		return errorResponse(c, err)
	}
	var request model.BatchPredictionRequest
	if err = c.Bind(&request); err != nil {
		return invalidBody(c)
	}

	items, err := controller.useCase.PredictBatch(c.Request().Context(), user, request)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// SubmitJob godoc
// @Summary Submit an async batch prediction
// @Description Queues the batch and returns the PENDING job, poll GET /predictions/jobs/{id} for the result
// @Tags predictions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.BatchPredictionRequest true "Selected regions"
// @Success 202 {object} model.PredictionJob
// @Failure 400 {object} map[string]string "Empty or oversized selection"
// @Failure 429 {object} map[string]string "Rate limited"
// @Failure 502 {object} map[string]string "Queue failure"
// @Router /predictions/jobs [post]
func (controller *PredictionController) SubmitJob(c echo.Context) error {
	user, err := authUser(c)
	if err != nil {
		return errorResponse(c, err)
	}
	var request model.BatchPredictionRequest
	if err = c.Bind(&request); err != nil {
		return invalidBody(c)
	}

	job, err := controller.useCase.SubmitJob(c.Request().Context(), user, request)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusAccepted, job)
}

// GetJob godoc
// @Summary Get an async batch prediction
// @Tags predictions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job id"
// @Success 200 {object} model.PredictionJob
// @Failure 404 {object} map[string]string "Job not found or expired"
// @Router /predictions/jobs/{id} [get]
func (controller *PredictionController) GetJob(c echo.Context) error {
	user, err := authUser(c)
	if err != nil {
		return errorResponse(c, err)
	}
	job, err := controller.useCase.GetJob(c.Request().Context(), user, c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

// History godoc
// @Summary Prediction history
// @Description Lists the stored predictions of the current user, newest first
// @Tags predictions
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(0)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} model.Page[entity.PredictionRecord]
// @Router /predictions/history [get]
func (controller *PredictionController) History(c echo.Context) error {
	user, err := authUser(c)
	if err != nil {
		return errorResponse(c, err)
	}
	page := numberutils.ClampInt(numberutils.ToIntWithDefault(c.QueryParam("page"), 0), 0, 1<<20)
	size := numberutils.ClampInt(numberutils.ToIntWithDefault(c.QueryParam("size"), 10), 1, 100)

	history, err := controller.useCase.ListHistory(c.Request().Context(), user, page, size)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, history)
}
