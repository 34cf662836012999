package credentials

import (
	"github.com/bandemoon/bandemoon-go/apimodel"
	"github.com/rs/zerolog/log"
)

// WriteStatus reports whether a best-effort write reached the substrate.
// Write faults are logged and absorbed rather than returned as errors, so
// interactive flows never fail on a local persistence problem; the flag
// exists so callers (and tests) can still observe the failure path.
type WriteStatus struct {
	Persisted bool
}

// Store is the Credential Store facade. It owns the durable copy of the
// session triple and never raises to its callers: reads degrade to absent
// values and writes report through WriteStatus.
type Store struct {
	repo Repo
}

// NewStore creates a Store over the given substrate.
func NewStore(repo Repo) *Store {
	return &Store{repo: repo}
}

// Put persists the full session triple. The write is atomic only from the
// caller's perspective: if any entry fails, the status reports the triple
// as not reliably persisted and the caller must treat storage as stale.
func (s *Store) Put(accessToken, refreshToken string, user *apimodel.UserInfo) WriteStatus {
	persisted := true
	if err := s.repo.PutAccessToken(accessToken); err != nil {
		log.Err(err).Msg("Failed to store access token")
		persisted = false
	}
	if err := s.repo.PutRefreshToken(refreshToken); err != nil {
		log.Err(err).Msg("Failed to store refresh token")
		persisted = false
	}
	if err := s.repo.PutUser(user); err != nil {
		log.Err(err).Msg("Failed to store user info")
		persisted = false
	}
	return WriteStatus{Persisted: persisted}
}

// PutTokens replaces the stored access token and, when the server rotated
// it, the refresh token. An empty refresh token leaves the stored one in
// place. The user record is untouched.
func (s *Store) PutTokens(accessToken, refreshToken string) WriteStatus {
	persisted := true
	if err := s.repo.PutAccessToken(accessToken); err != nil {
		log.Err(err).Msg("Failed to store access token")
		persisted = false
	}
	if refreshToken != "" {
		if err := s.repo.PutRefreshToken(refreshToken); err != nil {
			log.Err(err).Msg("Failed to store refresh token")
			persisted = false
		}
	}
	return WriteStatus{Persisted: persisted}
}

// Get returns the persisted triple. Each entry is read independently; any
// read fault is logged and the entry reported absent, which callers treat
// as "not logged in".
func (s *Store) Get() Credentials {
	var creds Credentials
	var err error
	if creds.AccessToken, err = s.repo.GetAccessToken(); err != nil {
		log.Err(err).Msg("Failed to read access token")
		creds.AccessToken = ""
	}
	if creds.RefreshToken, err = s.repo.GetRefreshToken(); err != nil {
		log.Err(err).Msg("Failed to read refresh token")
		creds.RefreshToken = ""
	}
	if creds.User, err = s.repo.GetUser(); err != nil {
		log.Err(err).Msg("Failed to read user info")
		creds.User = nil
	}
	return creds
}

// AccessToken returns the stored access token, or "" when absent or
// unreadable.
func (s *Store) AccessToken() string {
	token, err := s.repo.GetAccessToken()
	if err != nil {
		log.Err(err).Msg("Failed to read access token")
		return ""
	}
	return token
}

// RefreshToken returns the stored refresh token, or "" when absent or
// unreadable.
func (s *Store) RefreshToken() string {
	token, err := s.repo.GetRefreshToken()
	if err != nil {
		log.Err(err).Msg("Failed to read refresh token")
		return ""
	}
	return token
}

// Clear removes the full triple, best-effort.
func (s *Store) Clear() WriteStatus {
	if err := s.repo.Clear(); err != nil {
		log.Err(err).Msg("Failed to clear credentials")
		return WriteStatus{Persisted: false}
	}
	return WriteStatus{Persisted: true}
}

// HasSession reports whether both tokens are present in storage.
func (s *Store) HasSession() bool {
	return s.Get().HasTokens()
}
