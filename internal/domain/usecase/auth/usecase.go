package auth

import (
	"context"

	"bloomwatch/internal/domain/model"
)

type UseCase interface {
	SignUp(ctx context.Context, credentials model.CredentialsDTO) (*model.Session, error)
	SignIn(ctx context.Context, credentials model.CredentialsDTO) (*model.Session, error)
	Refresh(ctx context.Context, request model.RefreshDTO) (*model.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*model.AuthUser, error)
}
