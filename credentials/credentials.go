// Package credentials provides durable persistence for the Bandemoon
// session: the access token, the refresh token, and the minimal user
// identity issued at login.
package credentials

import "github.com/bandemoon/bandemoon-go/apimodel"

// Credentials is the persisted session triple. Any field may be absent;
// absent fields read back as their zero value.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	User         *apimodel.UserInfo
}

// Authenticated reports whether the triple represents a logged-in user:
// both a user record and an access token must be present.
func (c Credentials) Authenticated() bool {
	return c.User != nil && c.AccessToken != ""
}

// HasTokens reports whether both tokens are present. Used as a cheap
// pre-check for a stored session; it is not a substitute for reading the
// full triple.
func (c Credentials) HasTokens() bool {
	return c.AccessToken != "" && c.RefreshToken != ""
}
