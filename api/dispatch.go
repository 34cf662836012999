package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bandemoon/bandemoon-go/apimodel"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// maxResponseSize bounds the response body read so a misbehaving server
// cannot exhaust memory.
const maxResponseSize = 1 << 20 // 1MB

const networkErrorMessage = "Network error. Please try again."

// dispatch sends one API call and decodes the response into out. It never
// returns an error: transport and parse faults are reported through
// out.SetFailure, auth expiry is recovered with a single refresh-and-retry
// cycle, and server error bodies are decoded verbatim.
//
// Independent calls that each hit an expired token trigger independent
// refreshes; the later success overwrites the earlier one in storage. The
// server tolerates briefly-overlapping refresh tokens, so no in-flight
// guard is imposed.
func (c *Client) dispatch(ctx context.Context, method, endpoint string, body any, skipAuth bool, out apimodel.Failer) {
	c.send(ctx, method, endpoint, body, skipAuth, true, out)
}

// send is the single step of the dispatch state machine. allowRefresh is
// the one-shot refresh budget: the retried call runs with it spent, so a
// second 401 is returned to the caller as-is.
func (c *Client) send(ctx context.Context, method, endpoint string, body any, skipAuth, allowRefresh bool, out apimodel.Failer) {
	token := ""
	if !skipAuth {
		token = c.store.AccessToken()
		// The access token is a JWT; when its exp claim is already past
		// there is no point provoking the 401, so refresh up front. The
		// 401 path below remains the authoritative fallback.
		if allowRefresh && token != "" && c.expired(token) {
			refreshed := c.refreshAndStore(ctx)
			if !refreshed.Success {
				out.SetFailure(refreshed.Message)
				return
			}
			token = refreshed.AccessToken
			allowRefresh = false
		}
	}

	req, err := c.newRequest(ctx, method, endpoint, body, token)
	if err != nil {
		log.Err(err).Str("endpoint", endpoint).Msg("Failed to build API request")
		out.SetFailure(networkErrorMessage)
		return
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Err(err).Str("endpoint", endpoint).Msg("API request failed")
		out.SetFailure(networkErrorMessage)
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		log.Err(err).Str("endpoint", endpoint).Msg("Failed to read API response")
		out.SetFailure(networkErrorMessage)
		return
	}

	if resp.StatusCode == http.StatusUnauthorized && !skipAuth && allowRefresh {
		refreshed := c.refreshAndStore(ctx)
		if refreshed.Success {
			log.Debug().Str("endpoint", endpoint).Msg("Token refreshed, retrying original request")
			c.send(ctx, method, endpoint, body, skipAuth, false, out)
			return
		}
		// The refresh failure, not the original 401 body, is what the
		// caller receives.
		out.SetFailure(refreshed.Message)
		return
	}

	if err := json.Unmarshal(data, out); err != nil {
		log.Err(err).Int("status", resp.StatusCode).Str("endpoint", endpoint).Msg("Failed to parse API response")
		out.SetFailure(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
		return
	}
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body any, token string) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// refreshAndStore runs the refresh sub-flow against the stored refresh
// token, persists the new pair, and notifies the listener. The new tokens
// are durably stored and the listener has run before this returns, so a
// retry issued afterwards observes the rotated credentials.
func (c *Client) refreshAndStore(ctx context.Context) *apimodel.RefreshResponse {
	refreshed := c.Refresh(ctx, "")
	if refreshed.Success && refreshed.AccessToken == "" {
		refreshed.SetFailure("refresh response missing access token")
	}
	if !refreshed.Success {
		log.Debug().Str("reason", refreshed.Message).Msg("Token refresh failed")
		return refreshed
	}

	c.store.PutTokens(refreshed.AccessToken, refreshed.RefreshToken)
	c.notifyListener(refreshed.AccessToken, refreshed.RefreshToken)
	return refreshed
}

// expired reports whether a stored access token carries an exp claim that
// has already passed. The claims are parsed unverified: the client holds
// no signing key, and the server remains the authority either way. Opaque
// or claimless tokens are treated as live.
func (c *Client) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !c.nowTime().Before(exp.Time)
}
