package apimodel

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body of POST /auth/refresh. The refresh token is
// the only credential sent; the access token is never attached to a
// refresh call.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// LogoutRequest is the body of POST /auth/logout. The server revokes the
// supplied refresh token.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}
