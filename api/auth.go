package api

import (
	"context"
	"net/http"

	"github.com/bandemoon/bandemoon-go/apimodel"
)

// Login exchanges an email and password for a token pair and the user's
// identity snapshot. Authentication is skipped: no bearer credential is
// attached and a 401 is returned verbatim.
func (c *Client) Login(ctx context.Context, req apimodel.LoginRequest) *apimodel.LoginResponse {
	out := &apimodel.LoginResponse{}
	c.dispatch(ctx, http.MethodPost, "/auth/login", req, true, out)
	return out
}

// Refresh exchanges a refresh token for a new access token (and, when the
// server rotates, a new refresh token). When refreshToken is empty the
// stored one is used; when none is available at all the call fails without
// touching the network. The access token is never attached to a refresh
// call, and a 401 here is final.
func (c *Client) Refresh(ctx context.Context, refreshToken string) *apimodel.RefreshResponse {
	out := &apimodel.RefreshResponse{}
	if refreshToken == "" {
		refreshToken = c.store.RefreshToken()
	}
	if refreshToken == "" {
		out.SetFailure("No refresh token available")
		return out
	}
	c.send(ctx, http.MethodPost, "/auth/refresh", apimodel.RefreshRequest{RefreshToken: refreshToken}, true, false, out)
	return out
}

// Logout revokes the given refresh token on the server. The call itself is
// bearer-authenticated.
func (c *Client) Logout(ctx context.Context, refreshToken string) *apimodel.StatusResponse {
	out := &apimodel.StatusResponse{}
	c.dispatch(ctx, http.MethodPost, "/auth/logout", apimodel.LogoutRequest{RefreshToken: refreshToken}, false, out)
	return out
}

// LogoutAll revokes every session belonging to the authenticated user.
func (c *Client) LogoutAll(ctx context.Context) *apimodel.StatusResponse {
	out := &apimodel.StatusResponse{}
	c.dispatch(ctx, http.MethodPost, "/auth/logout-all", nil, false, out)
	return out
}

// ValidateToken asks the server whether the stored access token is still
// accepted.
func (c *Client) ValidateToken(ctx context.Context) *apimodel.ValidateResponse {
	out := &apimodel.ValidateResponse{}
	c.dispatch(ctx, http.MethodGet, "/auth/validate", nil, false, out)
	return out
}
