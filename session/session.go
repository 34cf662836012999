// Package session holds the in-memory mirror of the persisted credentials
// for synchronous reads by the presentation layer. The mirror has a single
// writer discipline: only Login, Logout, and UpdateTokens mutate it, and
// each writes through to the credential store.
package session

import (
	"sync"

	"github.com/bandemoon/bandemoon-go/apimodel"
	"github.com/bandemoon/bandemoon-go/credentials"
	"github.com/rs/zerolog/log"
)

// Session is an explicitly owned session-state object, passed to its
// consumers rather than reached for as a global.
type Session struct {
	store *credentials.Store

	lock         sync.RWMutex
	user         *apimodel.UserInfo
	accessToken  string
	refreshToken string
	loading      bool
}

// New creates an empty session over the given store. The session starts in
// the loading state until Restore runs.
func New(store *credentials.Store) *Session {
	return &Session{store: store, loading: true}
}

// Restore hydrates the mirror from storage at startup. This is the only
// push from storage to memory; afterwards the mirror is kept consistent by
// the mutators alone.
func (s *Session) Restore() {
	creds := s.store.Get()

	s.lock.Lock()
	defer s.lock.Unlock()
	if creds.HasTokens() && creds.User != nil {
		s.user = creds.User
		s.accessToken = creds.AccessToken
		s.refreshToken = creds.RefreshToken
		log.Debug().Int64("user_id", creds.User.ID).Msg("Session restored from storage")
	} else {
		log.Debug().Msg("No stored session found")
	}
	s.loading = false
}

// Login records a successful login and persists the full triple.
func (s *Session) Login(user *apimodel.UserInfo, accessToken, refreshToken string) credentials.WriteStatus {
	s.lock.Lock()
	s.user = user
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.lock.Unlock()

	return s.store.Put(accessToken, refreshToken, user)
}

// Logout clears the mirror and the durable copy.
func (s *Session) Logout() credentials.WriteStatus {
	s.lock.Lock()
	s.user = nil
	s.accessToken = ""
	s.refreshToken = ""
	s.lock.Unlock()

	return s.store.Clear()
}

// UpdateTokens records a token rotation. An empty refresh token keeps the
// current one. The signature matches api.TokenListener so the session can
// be wired as the client's listener at composition time.
func (s *Session) UpdateTokens(accessToken, refreshToken string) {
	s.lock.Lock()
	s.accessToken = accessToken
	if refreshToken != "" {
		s.refreshToken = refreshToken
	}
	s.lock.Unlock()

	// The dispatcher persists rotated tokens before notifying, so this
	// write is normally redundant; it keeps explicit callers covered.
	s.store.PutTokens(accessToken, refreshToken)
}

// User returns the identity snapshot, or nil when logged out.
func (s *Session) User() *apimodel.UserInfo {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.user
}

// AccessToken returns the mirrored access token.
func (s *Session) AccessToken() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.accessToken
}

// RefreshToken returns the mirrored refresh token.
func (s *Session) RefreshToken() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.refreshToken
}

// IsAuthenticated reports whether both a user record and an access token
// are present in the mirror.
func (s *Session) IsAuthenticated() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.user != nil && s.accessToken != ""
}

// IsLoading reports whether the session is still being restored or a
// foreground operation is in flight.
func (s *Session) IsLoading() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.loading
}

// SetLoading flips the loading flag around foreground operations.
func (s *Session) SetLoading(loading bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.loading = loading
}
