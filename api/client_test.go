package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bandemoon/bandemoon-go/api"
	"github.com/bandemoon/bandemoon-go/apimodel"
	"github.com/bandemoon/bandemoon-go/credentials"
	credentialrepofake "github.com/bandemoon/bandemoon-go/credentials/repofake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	baseURL string
}

func (c testConfig) GetBaseURL() string            { return c.baseURL }
func (c testConfig) GetHTTPTimeout() time.Duration { return 5 * time.Second }

// apiFixture wires a client against a scripted test server and records the
// order of observable events (requests, listener invocations).
type apiFixture struct {
	t      *testing.T
	repo   *credentialrepofake.FakeCredentialRepo
	store  *credentials.Store
	server *httptest.Server
	client *api.Client
	mux    *http.ServeMux

	lock   sync.Mutex
	events []string
}

func newAPIFixture(t *testing.T, opts ...api.Option) *apiFixture {
	t.Helper()

	f := &apiFixture{t: t, mux: http.NewServeMux()}
	f.repo = credentialrepofake.NewFakeCredentialRepo()
	f.store = credentials.NewStore(f.repo)
	f.server = httptest.NewServer(f.mux)
	t.Cleanup(f.server.Close)

	client, err := api.New(testConfig{baseURL: f.server.URL}, f.store, opts...)
	require.NoError(t, err)
	f.client = client
	return f
}

func (f *apiFixture) record(event string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.events = append(f.events, event)
}

func (f *apiFixture) recorded() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.events...)
}

func (f *apiFixture) countEvents(event string) int {
	count := 0
	for _, e := range f.recorded() {
		if e == event {
			count++
		}
	}
	return count
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// refreshHandler serves /auth/refresh with a fixed rotated pair and fails
// the test if an access token is ever attached to the refresh call.
func (f *apiFixture) serveRefresh(accessToken, refreshToken string) {
	f.mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.record("refresh")
		require.Empty(f.t, r.Header.Get("Authorization"))

		var req apimodel.RefreshRequest
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(f.t, req.RefreshToken)

		writeJSON(w, http.StatusOK, apimodel.RefreshResponse{
			Status:       apimodel.Status{Success: true, Message: "refreshed"},
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		})
	})
}

func (f *apiFixture) serveRefreshFailure(message string) {
	f.mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.record("refresh")
		writeJSON(w, http.StatusUnauthorized, apimodel.RefreshResponse{
			Status: apimodel.Status{Success: false, Message: message},
		})
	})
}

func expiredJWT(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestDispatchAttachesStoredBearerToken(t *testing.T) {
	f := newAPIFixture(t)
	f.store.Put("A1", "R1", &apimodel.UserInfo{ID: 7, Email: "a@b.com"})

	f.mux.HandleFunc("/profile/me", func(w http.ResponseWriter, r *http.Request) {
		f.record("profile")
		require.Equal(t, "Bearer A1", r.Header.Get("Authorization"))
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, apimodel.ProfileResponse{
			Status:      apimodel.Status{Success: true},
			UserProfile: &apimodel.UserProfile{ID: 7, Email: "a@b.com"},
		})
	})

	resp := f.client.MyProfile(context.Background())
	require.True(t, resp.Success)
	require.NotNil(t, resp.UserProfile)
	require.Equal(t, int64(7), resp.UserProfile.ID)
}

func TestDispatchSendsUnauthenticatedWithoutStoredToken(t *testing.T) {
	f := newAPIFixture(t)

	f.mux.HandleFunc("/profile/me", func(w http.ResponseWriter, r *http.Request) {
		f.record("profile")
		require.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusUnauthorized, apimodel.Status{Success: false, Message: "missing token"})
	})

	resp := f.client.MyProfile(context.Background())
	require.False(t, resp.Success)
	// No refresh token is stored, so the recovery attempt fails without a
	// refresh call and its failure is what the caller sees.
	require.Equal(t, "No refresh token available", resp.Message)
	require.Equal(t, 0, f.countEvents("refresh"))
	require.Equal(t, 1, f.countEvents("profile"))
}

func TestDispatchRefreshesAndRetriesOnceOn401(t *testing.T) {
	var listenerAccess, listenerRefresh string
	var f *apiFixture
	f = newAPIFixture(t, api.WithListener(func(accessToken, refreshToken string) {
		f.record("listener")
		listenerAccess = accessToken
		listenerRefresh = refreshToken
	}))
	f.store.Put("A1", "R1", &apimodel.UserInfo{ID: 7})
	f.serveRefresh("A2", "R2")

	f.mux.HandleFunc("/profile/me", func(w http.ResponseWriter, r *http.Request) {
		f.record("profile")
		if r.Header.Get("Authorization") != "Bearer A2" {
			writeJSON(w, http.StatusUnauthorized, apimodel.Status{Success: false, Message: "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, apimodel.ProfileResponse{
			Status:      apimodel.Status{Success: true},
			UserProfile: &apimodel.UserProfile{ID: 7},
		})
	})

	resp := f.client.MyProfile(context.Background())
	require.True(t, resp.Success)

	// Original call + exactly one retry, with the listener notified in
	// between, before the retry went out.
	require.Equal(t, []string{"profile", "refresh", "listener", "profile"}, f.recorded())
	require.Equal(t, "A2", listenerAccess)
	require.Equal(t, "R2", listenerRefresh)

	// Rotated pair is durably stored.
	creds := f.store.Get()
	require.Equal(t, "A2", creds.AccessToken)
	require.Equal(t, "R2", creds.RefreshToken)
}

func TestDispatchReturnsRefreshFailureAfter401(t *testing.T) {
	f := newAPIFixture(t)
	f.store.Put("A1", "R1", &apimodel.UserInfo{ID: 7})
	f.serveRefreshFailure("expired")

	f.mux.HandleFunc("/profile/me", func(w http.ResponseWriter, r *http.Request) {
		f.record("profile")
		writeJSON(w, http.StatusUnauthorized, apimodel.Status{Success: false, Message: "token expired"})
	})

	resp := f.client.MyProfile(context.Background())
	require.False(t, resp.Success)
	// The refresh failure, not the original 401 body.
	require.Equal(t, "expired", resp.Message)
	require.Equal(t, 1, f.countEvents("profile"))
	require.Equal(t, 1, f.countEvents("refresh"))
}

func TestDispatchDoesNotLoopOnRepeated401(t *testing.T) {
	f := newAPIFixture(t)
	f.store.Put("A1", "R1", &apimodel.UserInfo{ID: 7})
	f.serveRefresh("A2", "R2")

	f.mux.HandleFunc("/profile/me", func(w http.ResponseWriter, r *http.Request) {
		f.record("profile")
		writeJSON(w, http.StatusUnauthorized, apimodel.Status{Success: false, Message: "still unauthorized"})
	})

	resp := f.client.MyProfile(context.Background())
	require.False(t, resp.Success)
	// The second 401 is returned verbatim; the retry never re-enters the
	// refresh flow.
	require.Equal(t, "still unauthorized", resp.Message)
	require.Equal(t, 2, f.countEvents("profile"))
	require.Equal(t, 1, f.countEvents("refresh"))
}

func TestDispatchSkipAuthReturns401Verbatim(t *testing.T) {
	f := newAPIFixture(t)
	f.store.Put("A1", "R1", &apimodel.UserInfo{ID: 7})
	f.serveRefresh("A2", "R2")

	f.mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.record("login")
		require.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusUnauthorized, apimodel.Status{Success: false, Message: "invalid credentials"})
	})

	resp := f.client.Login(context.Background(), apimodel.LoginRequest{Email: "a@b.com", Password: "x"})
	require.False(t, resp.Success)
	require.Equal(t, "invalid credentials", resp.Message)
	require.Equal(t, 1, f.countEvents("login"))
	require.Equal(t, 0, f.countEvents("refresh"))
}

func TestDispatchPassesThroughNonAuthErrors(t *testing.T) {
	f := newAPIFixture(t)
	f.store.Put("A1", "R1", &apimodel.UserInfo{ID: 7})

	f.mux.HandleFunc("/profile/42", func(w http.ResponseWriter, r *http.Request) {
		f.record("profile")
		writeJSON(w, http.StatusNotFound, apimodel.Status{Success: false, Message: "profile not found"})
	})

	resp := f.client.UserProfile(context.Background(), 42)
	require.False(t, resp.Success)
	require.Equal(t, "profile not found", resp.Message)
	require.Equal(t, 0, f.countEvents("refresh"))
}

func TestDispatchConvertsTransportFailure(t *testing.T) {
	repo := credentialrepofake.NewFakeCredentialRepo()
	store := credentials.NewStore(repo)
	client, err := api.New(testConfig{baseURL: "http://127.0.0.1:1"}, store)
	require.NoError(t, err)

	resp := client.MyProfile(context.Background())
	require.False(t, resp.Success)
	require.Equal(t, "Network error. Please try again.", resp.Message)
}

func TestDispatchConvertsMalformedBody(t *testing.T) {
	f := newAPIFixture(t)
	f.store.Put("A1", "R1", &apimodel.UserInfo{ID: 7})

	f.mux.HandleFunc("/profile/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})

	resp := f.client.MyProfile(context.Background())
	require.False(t, resp.Success)
	require.Equal(t, "HTTP 502: Bad Gateway", resp.Message)
}

func TestRefreshWithoutTokenMakesNoNetworkCall(t *testing.T) {
	f := newAPIFixture(t)
	f.mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.record("refresh")
		writeJSON(w, http.StatusOK, apimodel.Status{Success: true})
	})

	resp := f.client.Refresh(context.Background(), "")
	require.False(t, resp.Success)
	require.Equal(t, "No refresh token available", resp.Message)
	require.Empty(t, f.recorded())
}

func TestRefreshUsesStoredTokenWhenNoneSupplied(t *testing.T) {
	f := newAPIFixture(t)
	f.store.Put("A1", "R1", &apimodel.UserInfo{ID: 7})
	f.serveRefresh("A2", "R2")

	resp := f.client.Refresh(context.Background(), "")
	require.True(t, resp.Success)
	require.Equal(t, "A2", resp.AccessToken)

	// Refresh alone does not persist; only the dispatcher's recovery path
	// writes tokens back.
	require.Equal(t, "A1", f.store.AccessToken())
}

func TestDispatchRefreshesProactivelyWhenTokenExpired(t *testing.T) {
	f := newAPIFixture(t)
	f.store.Put(expiredJWT(t), "R1", &apimodel.UserInfo{ID: 7})
	f.serveRefresh("A2", "R2")

	f.mux.HandleFunc("/profile/me", func(w http.ResponseWriter, r *http.Request) {
		f.record("profile")
		require.Equal(t, "Bearer A2", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, apimodel.ProfileResponse{
			Status:      apimodel.Status{Success: true},
			UserProfile: &apimodel.UserProfile{ID: 7},
		})
	})

	resp := f.client.MyProfile(context.Background())
	require.True(t, resp.Success)
	// The expired token never reaches the server: one refresh, one send.
	require.Equal(t, []string{"refresh", "profile"}, f.recorded())
	require.Equal(t, "A2", f.store.AccessToken())
}

func TestDispatchListenerPanicDoesNotBlockRetry(t *testing.T) {
	f := newAPIFixture(t, api.WithListener(func(accessToken, refreshToken string) {
		panic("listener blew up")
	}))
	f.store.Put("A1", "R1", &apimodel.UserInfo{ID: 7})
	f.serveRefresh("A2", "R2")

	f.mux.HandleFunc("/profile/me", func(w http.ResponseWriter, r *http.Request) {
		f.record("profile")
		if r.Header.Get("Authorization") != "Bearer A2" {
			writeJSON(w, http.StatusUnauthorized, apimodel.Status{Success: false, Message: "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, apimodel.ProfileResponse{Status: apimodel.Status{Success: true}})
	})

	resp := f.client.MyProfile(context.Background())
	require.True(t, resp.Success)
	require.Equal(t, 2, f.countEvents("profile"))
}

func TestLoginStoresNothingByItself(t *testing.T) {
	f := newAPIFixture(t)
	f.mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req apimodel.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "a@b.com", req.Email)
		writeJSON(w, http.StatusOK, apimodel.LoginResponse{
			Status:       apimodel.Status{Success: true, Message: "welcome"},
			AccessToken:  "A1",
			RefreshToken: "R1",
			User:         &apimodel.UserInfo{ID: 7, Email: "a@b.com", FirstName: "Ada", LastName: "Lovelace"},
		})
	})

	resp := f.client.Login(context.Background(), apimodel.LoginRequest{Email: "a@b.com", Password: "x"})
	require.True(t, resp.Success)
	require.Equal(t, "A1", resp.AccessToken)
	require.NotNil(t, resp.User)

	// Persisting a login is the session holder's job, not the client's.
	require.False(t, f.store.HasSession())
}
