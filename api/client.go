// Package api is the Bandemoon REST client. It attaches the stored bearer
// credential to outgoing requests, recovers transparently from an expired
// access token with a single refresh-and-retry cycle, and reports every
// outcome as a typed result rather than an error.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/bandemoon/bandemoon-go/credentials"
	"github.com/bandemoon/bandemoon-go/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// TokenListener is notified with the new token pair whenever a silent
// refresh succeeds inside a dispatched call. It is the only path by which
// the in-memory session mirror learns of a rotation that did not come from
// an explicit login or logout.
type TokenListener func(accessToken, refreshToken string)

// Client issues authenticated calls against the Bandemoon API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *credentials.Store
	listener   TokenListener
	nowTime    func() time.Time // nowTime function (injectable for testing)
}

// Option defines a function type to modify the Client instance.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithListener registers the single token listener. It is set once at
// composition time.
func WithListener(listener TokenListener) Option {
	return func(c *Client) {
		c.listener = listener
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

// New initializes a Client with required dependencies. Optional
// configuration can be provided via options.
func New(cfg config.APIConfig, store *credentials.Store, options ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("[api.New] config is required")
	}
	if store == nil {
		return nil, errors.New("[api.New] credential store is required")
	}

	client := &Client{
		baseURL:    strings.TrimRight(cfg.GetBaseURL(), "/"),
		httpClient: &http.Client{Timeout: cfg.GetHTTPTimeout()},
		store:      store,
		nowTime:    time.Now,
	}

	for _, opt := range options {
		opt(client)
	}

	return client, nil
}

// notifyListener invokes the registered listener with the new token pair.
// The listener runs synchronously before any retry; a panic inside it is
// logged and must not block the retry.
func (c *Client) notifyListener(accessToken, refreshToken string) {
	if c.listener == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Token listener panicked")
		}
	}()
	c.listener(accessToken, refreshToken)
}
