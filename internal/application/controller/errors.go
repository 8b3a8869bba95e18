package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"bloomwatch/internal/application/middleware"
	"bloomwatch/internal/domain/model"
	"bloomwatch/pkg/log"
	"bloomwatch/pkg/msg"
)

// statusOf maps domain errors to HTTP statuses
func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, model.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(c echo.Context, err error) error {
	status := statusOf(err)

	switch status {
	case http.StatusInternalServerError:
		log.Errorw("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
		return c.JSON(status, map[string]string{"error": msg.GetMessage("error.internal")})
	case http.StatusBadGateway:
		log.Warnw("upstream failure", "method", c.Request().Method, "path", c.Path(), "error", err)
	}
	return c.JSON(status, map[string]string{"error": model.PublicMessage(err)})
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg.GetMessage("error.invalid-body")})
}

// authUser returns the user set by the auth middleware, routes without it answer 401
func authUser(c echo.Context) (model.AuthUser, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return model.AuthUser{}, model.Unauthorized("%s", msg.GetMessage("error.unauthorized"))
	}
	return user, nil
}
