package auth

import (
	"context"
	"strings"

	"bloomwatch/internal/domain/gateway/api"
	"bloomwatch/internal/domain/model"
	"bloomwatch/internal/domain/model/external"
	"bloomwatch/pkg/log"
	"bloomwatch/pkg/msg"
)

type authUseCase struct {
	identity api.IdentityGateway
}

func NewAuthUseCase(identity api.IdentityGateway) UseCase {
	return &authUseCase{identity: identity}
}

func (uc *authUseCase) SignUp(ctx context.Context, credentials model.CredentialsDTO) (*model.Session, error) {
	email, password, err := validateCredentials(credentials)
	if err != nil {
		return nil, err
	}

	resp, err := uc.identity.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	session := toSession(resp)
	log.Infow("user signed up", "userId", session.User.ID, "confirmed", session.AccessToken != "")
	return session, nil
}

func (uc *authUseCase) SignIn(ctx context.Context, credentials model.CredentialsDTO) (*model.Session, error) {
	email, password, err := validateCredentials(credentials)
	if err != nil {
		return nil, err
	}

	resp, err := uc.identity.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return toSession(resp), nil
}

func (uc *authUseCase) Refresh(ctx context.Context, request model.RefreshDTO) (*model.Session, error) {
	token := strings.TrimSpace(request.RefreshToken)
	if token == "" {
		return nil, model.InvalidInput("%s", msg.GetMessage("auth.error.refresh-required"))
	}

	resp, err := uc.identity.Refresh(ctx, token)
	if err != nil {
		return nil, err
	}
	return toSession(resp), nil
}

func (uc *authUseCase) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return model.Unauthorized("%s", msg.GetMessage("error.unauthorized"))
	}
	return uc.identity.SignOut(ctx, accessToken)
}

func (uc *authUseCase) GetUser(ctx context.Context, accessToken string) (*model.AuthUser, error) {
	if accessToken == "" {
		return nil, model.Unauthorized("%s", msg.GetMessage("error.unauthorized"))
	}

	user, err := uc.identity.GetUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	authUser := toAuthUser(user)
	return &authUser, nil
}

func validateCredentials(credentials model.CredentialsDTO) (string, string, error) {
	email := strings.TrimSpace(credentials.Email)
	if email == "" || credentials.Password == "" {
		return "", "", model.InvalidInput("%s", msg.GetMessage("auth.error.credentials-required"))
	}
	return email, credentials.Password, nil
}

// toSession handles both the token response and the bare user that signup returns while confirmation is pending
func toSession(resp *external.IdentityTokenResponse) *model.Session {
	session := &model.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		ExpiresIn:    resp.ExpiresIn,
		ExpiresAt:    resp.ExpiresAt,
	}
	if resp.User != nil {
		session.User = toAuthUser(resp.User)
	} else {
		session.User = model.AuthUser{ID: resp.ID, Email: resp.Email, Role: resp.Role}
	}
	return session
}

func toAuthUser(user *external.IdentityUser) model.AuthUser {
	return model.AuthUser{ID: user.ID, Email: user.Email, Role: user.Role}
}
