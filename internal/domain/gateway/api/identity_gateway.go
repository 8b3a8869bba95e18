package api

import (
	"context"

	"bloomwatch/internal/domain/model/external"
)

// IdentityGateway proxies the hosted GoTrue compatible identity service
type IdentityGateway interface {
	SignUp(ctx context.Context, email, password string) (*external.IdentityTokenResponse, error)
	SignIn(ctx context.Context, email, password string) (*external.IdentityTokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*external.IdentityTokenResponse, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*external.IdentityUser, error)
}
