package model

// CredentialsDTO is the body of signup and login
type CredentialsDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshDTO is the body of POST /auth/refresh
type RefreshDTO struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthUser is the authenticated principal put on the request by the auth middleware
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is returned by signup, login and refresh. Tokens are empty when signup requires email confirmation.
type Session struct {
	AccessToken  string   `json:"accessToken,omitempty"`
	RefreshToken string   `json:"refreshToken,omitempty"`
	TokenType    string   `json:"tokenType,omitempty"`
	ExpiresIn    int      `json:"expiresIn,omitempty"`
	ExpiresAt    int64    `json:"expiresAt,omitempty"`
	User         AuthUser `json:"user"`
}
