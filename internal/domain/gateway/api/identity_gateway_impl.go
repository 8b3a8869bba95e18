package api

import (
	"context"
	"errors"
	"time"

	"bloomwatch/internal/domain/model"
	"bloomwatch/internal/domain/model/external"
	"bloomwatch/pkg/http"
	"bloomwatch/pkg/metrics"
)

const identityPrefix = "/auth/v1"

type identityGatewayImpl struct {
	httpClient *http.Client
	metrics    *metrics.Collector
}

// NewIdentityGateway creates an IdentityGateway. anonKey is sent as the apikey header on every call.
func NewIdentityGateway(baseUrl string, anonKey string, clientOptions http.ClientOptions, collector *metrics.Collector) IdentityGateway {
	headers := map[string]string{"apikey": anonKey}
	for k, v := range clientOptions.DefaultHeaders {
		headers[k] = v
	}
	clientOptions.DefaultHeaders = headers

	return &identityGatewayImpl{
		httpClient: http.NewHttpClient(baseUrl, clientOptions),
		metrics:    collector,
	}
}

func (g *identityGatewayImpl) SignUp(ctx context.Context, email, password string) (*external.IdentityTokenResponse, error) {
	return g.token(ctx, identityPrefix+"/signup", nil, external.PasswordGrant{Email: email, Password: password})
}

func (g *identityGatewayImpl) SignIn(ctx context.Context, email, password string) (*external.IdentityTokenResponse, error) {
	query := map[string]string{"grant_type": "password"}
	return g.token(ctx, identityPrefix+"/token", query, external.PasswordGrant{Email: email, Password: password})
}

func (g *identityGatewayImpl) Refresh(ctx context.Context, refreshToken string) (*external.IdentityTokenResponse, error) {
	query := map[string]string{"grant_type": "refresh_token"}
	return g.token(ctx, identityPrefix+"/token", query, external.RefreshGrant{RefreshToken: refreshToken})
}

func (g *identityGatewayImpl) SignOut(ctx context.Context, accessToken string) error {
	timer := time.Now()
	_, errResp, status, err := g.httpClient.Request().
		WithContext(ctx).
		WithMethod(http.POST).
		WithPath(identityPrefix + "/logout").
		WithHeaders(bearer(accessToken)).
		WithErrorResp(&external.IdentityErrorResponse{}).
		Execute()
	g.metrics.RecordUpstream("identity", err, time.Since(timer))

	if err != nil {
		return identityError(err, errResp, status)
	}
	return nil
}

func (g *identityGatewayImpl) GetUser(ctx context.Context, accessToken string) (*external.IdentityUser, error) {
	timer := time.Now()
	successResp, errResp, status, err := g.httpClient.Request().
		WithContext(ctx).
		WithMethod(http.GET).
		WithPath(identityPrefix + "/user").
		WithHeaders(bearer(accessToken)).
		WithSuccessResp(&external.IdentityUser{}).
		WithErrorResp(&external.IdentityErrorResponse{}).
		Execute()
	g.metrics.RecordUpstream("identity", err, time.Since(timer))

	if err != nil {
		return nil, identityError(err, errResp, status)
	}
	return successResp.(*external.IdentityUser), nil
}

func (g *identityGatewayImpl) token(ctx context.Context, path string, query map[string]string, body any) (*external.IdentityTokenResponse, error) {
	timer := time.Now()
	successResp, errResp, status, err := g.httpClient.Request().
		WithContext(ctx).
		WithMethod(http.POST).
		WithPath(path).
		WithQueryParams(query).
		WithBody(body).
		WithSuccessResp(&external.IdentityTokenResponse{}).
		WithErrorResp(&external.IdentityErrorResponse{}).
		Execute()
	g.metrics.RecordUpstream("identity", err, time.Since(timer))

	if err != nil {
		return nil, identityError(err, errResp, status)
	}
	return successResp.(*external.IdentityTokenResponse), nil
}

// identityError maps identity service failures: 4xx are the caller's fault, the rest are upstream errors
func identityError(err error, errResp any, status int) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	text := "identity service unavailable"
	badCredentials := false
	if errResp != nil {
		identityErr := errResp.(*external.IdentityErrorResponse)
		text = identityErr.Text()
		badCredentials = identityErr.Error == "invalid_grant" || identityErr.ErrorCode == "invalid_credentials"
	}

	switch {
	case status == 401 || status == 403 || badCredentials:
		return model.Unauthorized("%s", text)
	case status == 429:
		return model.RateLimited(err, "%s", text)
	case status >= 400 && status < 500:
		return model.InvalidInput("%s", text)
	default:
		return model.Upstream(err, "%s", text)
	}
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
