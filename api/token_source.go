package api

import (
	"context"

	apierrors "github.com/bandemoon/bandemoon-go/internal/errors"
	"golang.org/x/oauth2"
)

// tokenSource adapts the stored credentials and the refresh flow to
// oauth2.TokenSource, so the client composes with oauth2-aware HTTP
// tooling (oauth2.NewClient and friends).
type tokenSource struct {
	ctx    context.Context
	client *Client
}

var _ oauth2.TokenSource = (*tokenSource)(nil)

// TokenSource returns an oauth2.TokenSource backed by the credential store.
// Token returns the stored access token while it is live and refreshes
// through the usual persist-and-notify path once it expires.
func (c *Client) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, client: c}
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	access := ts.client.store.AccessToken()
	if access != "" && !ts.client.expired(access) {
		return &oauth2.Token{AccessToken: access, TokenType: "Bearer"}, nil
	}

	if ts.client.store.RefreshToken() == "" {
		return nil, apierrors.ErrNoRefreshToken
	}
	refreshed := ts.client.refreshAndStore(ts.ctx)
	if !refreshed.Success {
		return nil, apierrors.Wrapf(apierrors.ErrSessionExpired, "token refresh failed: %s", refreshed.Message)
	}
	return &oauth2.Token{AccessToken: refreshed.AccessToken, TokenType: "Bearer"}, nil
}
