package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bloomwatch/internal/application/middleware"
	"bloomwatch/internal/domain/model"
	"bloomwatch/internal/domain/usecase/auth"
)

type AuthController struct {
	api         *echo.Group
	useCase     auth.UseCase
	requireAuth echo.MiddlewareFunc
}

func NewAuthController(api *echo.Group, useCase auth.UseCase, requireAuth echo.MiddlewareFunc) *AuthController {
	return &AuthController{api: api, useCase: useCase, requireAuth: requireAuth}
}

// InitAuthRoutes initializes auth routes
func (controller *AuthController) InitAuthRoutes() {
	controller.api.POST("/auth/signup", controller.SignUp)
	controller.api.POST("/auth/login", controller.Login)
	controller.api.POST("/auth/refresh", controller.Refresh)
	controller.api.POST("/auth/logout", controller.Logout, controller.requireAuth)
	controller.api.GET("/auth/me", controller.Me, controller.requireAuth)
}

// SignUp godoc
// @Summary Sign up
// @Description Creates an account on the identity service. Tokens are empty while email confirmation is pending.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body model.CredentialsDTO true "Email and password"
// @Success 201 {object} model.Session
// @Failure 400 {object} map[string]string "Missing credentials"
// @Failure 502 {object} map[string]string "Identity service failure"
// @Router /auth/signup [post]
func (controller *AuthController) SignUp(c echo.Context) error {
	var dto model.CredentialsDTO
	if err := c.Bind(&dto); err != nil {
		return invalidBody(c)
	}

	session, err := controller.useCase.SignUp(c.Request().Context(), dto)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, session)
}

// Login godoc
// @Summary Log in
// @Description Exchanges email and password for an access and refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body model.CredentialsDTO true "Email and password"
// @Success 200 {object} model.Session
// @Failure 400 {object} map[string]string "Missing credentials"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (controller *AuthController) Login(c echo.Context) error {
	var dto model.CredentialsDTO
	if err := c.Bind(&dto); err != nil {
		return invalidBody(c)
	}

	session, err := controller.useCase.SignIn(c.Request().Context(), dto)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

// Refresh godoc
// @Summary Refresh session
// @Tags auth
// @Accept json
// @Produce json
// @Param refresh body model.RefreshDTO true "Refresh token"
// @Success 200 {object} model.Session
// @Failure 400 {object} map[string]string "Missing refresh token"
// @Failure 401 {object} map[string]string "Invalid refresh token"
// @Router /auth/refresh [post]
func (controller *AuthController) Refresh(c echo.Context) error {
	var dto model.RefreshDTO
	if err := c.Bind(&dto); err != nil {
		return invalidBody(c)
	}

	session, err := controller.useCase.Refresh(c.Request().Context(), dto)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

// Logout godoc
// @Summary Log out
// @Description Revokes the refresh tokens of the current session
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Router /auth/logout [post]
func (controller *AuthController) Logout(c echo.Context) error {
	if err := controller.useCase.SignOut(c.Request().Context(), middleware.AccessToken(c)); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.AuthUser
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Router /auth/me [get]
func (controller *AuthController) Me(c echo.Context) error {
	user, err := controller.useCase.GetUser(c.Request().Context(), middleware.AccessToken(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
