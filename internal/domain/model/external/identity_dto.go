package external

// IdentityUser is the user object of the GoTrue compatible identity API
type IdentityUser struct {
	ID        string `json:"id"`
	Aud       string `json:"aud"`
	Role      string `json:"role"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// IdentityTokenResponse is returned by /token and by /signup when auto-confirm is enabled.
// When email confirmation is pending, /signup returns a bare user so ID/Email are set at top level.
type IdentityTokenResponse struct {
	AccessToken  string        `json:"access_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int           `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	RefreshToken string        `json:"refresh_token"`
	User         *IdentityUser `json:"user"`

	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IdentityErrorResponse covers the error shapes of the identity API
type IdentityErrorResponse struct {
	Code             int    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Text returns the most specific message of the error
func (e *IdentityErrorResponse) Text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return "identity service error"
}

// PasswordGrant is the body of /token?grant_type=password and /signup
type PasswordGrant struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshGrant is the body of /token?grant_type=refresh_token
type RefreshGrant struct {
	RefreshToken string `json:"refresh_token"`
}
