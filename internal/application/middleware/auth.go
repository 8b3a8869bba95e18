package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"bloomwatch/internal/domain/model"
	"bloomwatch/pkg/log"
	"bloomwatch/pkg/msg"
)

const (
	userContextKey  = "authUser"
	tokenContextKey = "accessToken"
)

// IdentityClaims are the claims of an access token issued by the identity service
type IdentityClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// AuthConfig holds the shared secret and expected audience of access tokens
type AuthConfig struct {
	Secret   []byte
	Audience string
}

// ErrMissingSecret is returned when no HMAC secret is configured. An empty key would verify forged tokens.
var ErrMissingSecret = errors.New("access token secret is not configured")

// Validate fails when the secret is empty
func (config AuthConfig) Validate() error {
	if len(config.Secret) == 0 {
		return ErrMissingSecret
	}
	return nil
}

// RequireAuth verifies the bearer access token locally and puts the user on the context
func RequireAuth(config AuthConfig) echo.MiddlewareFunc {
	if config.Audience == "" {
		config.Audience = "authenticated"
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(config.Audience),
		jwt.WithExpirationRequired(),
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return unauthorized(c)
			}

			claims := &IdentityClaims{}
			token, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
				if err := config.Validate(); err != nil {
					return nil, err
				}
				return config.Secret, nil
			})
			if err != nil || !token.Valid || claims.Subject == "" {
				if err != nil && !errors.Is(err, jwt.ErrTokenExpired) {
					log.Debugw("rejected access token", "error", err)
				}
				return unauthorized(c)
			}

			c.Set(userContextKey, model.AuthUser{ID: claims.Subject, Email: claims.Email, Role: claims.Role})
			c.Set(tokenContextKey, tokenStr)
			return next(c)
		}
	}
}

// CurrentUser returns the user set by RequireAuth
func CurrentUser(c echo.Context) (model.AuthUser, bool) {
	user, ok := c.Get(userContextKey).(model.AuthUser)
	return user, ok
}

// AccessToken returns the raw bearer token set by RequireAuth
func AccessToken(c echo.Context) string {
	token, _ := c.Get(tokenContextKey).(string)
	return token
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": msg.GetMessage("error.unauthorized")})
}
