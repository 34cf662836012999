package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bandemoon/bandemoon-go/apimodel"
)

// MyProfile fetches the authenticated user's own profile.
func (c *Client) MyProfile(ctx context.Context) *apimodel.ProfileResponse {
	out := &apimodel.ProfileResponse{}
	c.dispatch(ctx, http.MethodGet, "/profile/me", nil, false, out)
	return out
}

// UserProfile fetches another user's profile by ID.
func (c *Client) UserProfile(ctx context.Context, userID int64) *apimodel.ProfileResponse {
	out := &apimodel.ProfileResponse{}
	c.dispatch(ctx, http.MethodGet, fmt.Sprintf("/profile/%d", userID), nil, false, out)
	return out
}
