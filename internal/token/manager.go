// Package token owns the OAuth2 credential lifecycle for the gateway. It
// keeps the live credential in memory, refreshes it against the vendor's
// token endpoint and persists every change through a credstore.Store.
package token

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"utec-gateway/internal/circuitbreaker"
	"utec-gateway/internal/common/errors"
	commonhttp "utec-gateway/internal/common/http"
	"utec-gateway/internal/common/logging"
	"utec-gateway/internal/credstore"
	"utec-gateway/internal/settings"
)

// DefaultExpiresIn is assumed when the token endpoint omits expires_in.
const DefaultExpiresIn = 3600 * time.Second

// SettingsSource supplies the current endpoint settings. The manager reads
// them fresh for every operation so runtime configuration changes take
// effect without a restart.
type SettingsSource func() settings.Settings

// Manager is the single owner of the gateway credential. The mutex guards
// the credential pointer; the singleflight group collapses concurrent
// refresh attempts into one network call whose outcome all callers share.
type Manager struct {
	store    credstore.Store
	settings SettingsSource
	client   *nethttp.Client
	breaker  *circuitbreaker.Breaker
	logger   logging.Logger

	mu   sync.Mutex
	cred *credstore.Credential
	sf   singleflight.Group
}

// Option customizes a Manager.
type Option func(*Manager)

// WithHTTPClient overrides the HTTP client used for token endpoint calls.
func WithHTTPClient(client *nethttp.Client) Option {
	return func(m *Manager) { m.client = client }
}

// WithBreaker overrides the circuit breaker guarding the token endpoint.
func WithBreaker(b *circuitbreaker.Breaker) Option {
	return func(m *Manager) { m.breaker = b }
}

// NewManager builds a manager and loads any persisted credential from the
// store. A missing credential is not an error; the gateway starts
// unauthenticated and waits for an authorization code exchange.
func NewManager(ctx context.Context, store credstore.Store, src SettingsSource, logger logging.Logger, opts ...Option) (*Manager, error) {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	m := &Manager{
		store:    store,
		settings: src,
		client:   commonhttp.NewHTTPClient(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.breaker == nil {
		m.breaker = circuitbreaker.New("oauth", circuitbreaker.OAuthConfig, logger)
	}

	cred, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if cred != nil {
		cred.RefreshBuffer = src().RefreshBuffer
		m.cred = cred
		logger.Info("Loaded persisted credential",
			logging.Bool("has_refresh_token", cred.RefreshToken != ""),
			logging.Bool("expired", cred.Expired(time.Now())))
	}
	return m, nil
}

// Credential returns a copy of the current credential, or nil when the
// gateway has never been authorized.
func (m *Manager) Credential() *credstore.Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred.Clone()
}

// IsExpired reports whether the current access token needs a refresh before
// use. A missing credential counts as expired.
func (m *Manager) IsExpired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred == nil || m.cred.AccessToken == "" || m.cred.Expired(time.Now())
}

// SetRefreshBuffer changes how early before expiry the token is considered
// stale.
func (m *Manager) SetRefreshBuffer(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred != nil {
		m.cred.RefreshBuffer = d
	}
}

// SetClientCredentials stores a new client id and secret, keeping any
// existing tokens. The change is persisted immediately.
func (m *Manager) SetClientCredentials(ctx context.Context, clientID, clientSecret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cred == nil {
		m.cred = &credstore.Credential{RefreshBuffer: m.settings().RefreshBuffer}
	}
	m.cred.ClientID = clientID
	m.cred.ClientSecret = clientSecret

	if err := m.store.Save(ctx, m.cred); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

// EnsureValid guarantees a usable access token, refreshing when needed. It
// makes no network call when the current token is still fresh, and fails
// fast with an auth-unavailable error when no refresh is possible.
func (m *Manager) EnsureValid(ctx context.Context) error {
	m.mu.Lock()
	cred := m.cred
	switch {
	case cred != nil && cred.AccessToken != "" && !cred.Expired(time.Now()):
		m.mu.Unlock()
		return nil
	case cred == nil || cred.RefreshToken == "":
		m.mu.Unlock()
		return errors.AuthUnavailableError("no refresh token available, authorize the gateway first")
	}
	m.mu.Unlock()

	return m.ForceRefresh(ctx)
}

// ForceRefresh refreshes the access token regardless of its current state.
// Concurrent callers are collapsed into a single token endpoint request.
func (m *Manager) ForceRefresh(ctx context.Context) error {
	_, err, _ := m.sf.Do("refresh", func() (interface{}, error) {
		return nil, m.refresh(ctx)
	})
	return err
}

// refresh performs the refresh_token grant. The stored credential is only
// modified on success.
func (m *Manager) refresh(ctx context.Context) error {
	m.mu.Lock()
	cred := m.cred.Clone()
	m.mu.Unlock()

	if cred == nil || cred.RefreshToken == "" {
		return errors.AuthUnavailableError("no refresh token available, authorize the gateway first")
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {cred.RefreshToken},
		"client_id":     {cred.ClientID},
		"client_secret": {cred.ClientSecret},
	}

	start := time.Now()
	resp, err := m.postToken(ctx, form)
	if err != nil {
		m.logger.Warn("Token refresh failed",
			logging.Duration("duration", time.Since(start)),
			logging.Err(err))
		return err
	}

	m.applyTokenResponse(ctx, resp)
	m.logger.Info("Token refreshed",
		logging.Duration("duration", time.Since(start)),
		logging.Bool("rotated", resp.RefreshToken != ""))
	return nil
}

// ExchangeCode trades an authorization code for the initial token pair.
func (m *Manager) ExchangeCode(ctx context.Context, code string) error {
	if code == "" {
		return errors.ValidationError("authorization code must not be empty")
	}

	m.mu.Lock()
	cred := m.cred.Clone()
	m.mu.Unlock()

	if cred == nil || cred.ClientID == "" {
		return errors.ValidationError("client_id not configured")
	}

	s := m.settings()
	if s.RedirectURI == "" {
		return errors.ValidationError("redirect_uri not configured")
	}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {s.RedirectURI},
		"client_id":     {cred.ClientID},
		"client_secret": {cred.ClientSecret},
	}

	resp, err := m.postToken(ctx, form)
	if err != nil {
		return err
	}

	m.applyTokenResponse(ctx, resp)
	m.logger.Info("Authorization code exchanged")
	return nil
}

// AuthorizeURL builds the vendor consent page URL for the configured client.
func (m *Manager) AuthorizeURL() (string, error) {
	m.mu.Lock()
	clientID := ""
	if m.cred != nil {
		clientID = m.cred.ClientID
	}
	m.mu.Unlock()

	if clientID == "" {
		return "", errors.ValidationError("client_id not configured")
	}

	s := m.settings()
	q := url.Values{
		"response_type": {"code"},
		"client_id":     {clientID},
		"scope":         {s.Scope},
	}
	if s.RedirectURI != "" {
		q.Set("redirect_uri", s.RedirectURI)
	}
	return strings.TrimRight(s.OAuthBaseURL, "/") + "/authorize?" + q.Encode(), nil
}

// tokenResponse is the vendor's token endpoint payload. RefreshToken is
// empty when the vendor does not rotate refresh tokens.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// postToken sends a form-encoded grant request to the token endpoint.
func (m *Manager) postToken(ctx context.Context, form url.Values) (*tokenResponse, error) {
	endpoint := strings.TrimRight(m.settings().OAuthBaseURL, "/") + "/token"

	var result *tokenResponse
	err := m.breaker.Execute(ctx, func() error {
		req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return errors.InternalError("build token request", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := m.client.Do(req)
		if err != nil {
			return errors.TransportError("token endpoint unreachable", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return errors.TransportError("read token response", err)
		}

		if resp.StatusCode != nethttp.StatusOK {
			return errors.AuthExchangeError(
				fmt.Sprintf("token endpoint returned %d: %s", resp.StatusCode, truncate(string(body), 256)), nil)
		}

		var tr tokenResponse
		if err := json.Unmarshal(body, &tr); err != nil {
			return errors.AuthExchangeError("token endpoint returned malformed JSON", err)
		}
		if tr.AccessToken == "" {
			return errors.AuthExchangeError("token endpoint response missing access_token", nil)
		}
		result = &tr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyTokenResponse updates the in-memory credential and persists it. A
// failed save is logged but does not fail the refresh; the in-memory token
// is already usable.
func (m *Manager) applyTokenResponse(ctx context.Context, tr *tokenResponse) {
	expiresIn := DefaultExpiresIn
	if tr.ExpiresIn > 0 {
		expiresIn = time.Duration(tr.ExpiresIn) * time.Second
	}
	expiresAt := time.Now().Add(expiresIn)

	m.mu.Lock()
	if m.cred == nil {
		m.cred = &credstore.Credential{RefreshBuffer: m.settings().RefreshBuffer}
	}
	m.cred.AccessToken = tr.AccessToken
	if tr.RefreshToken != "" {
		m.cred.RefreshToken = tr.RefreshToken
	}
	m.cred.ExpiresAt = &expiresAt
	cred := m.cred.Clone()
	m.mu.Unlock()

	if err := m.store.Save(ctx, cred); err != nil {
		m.logger.Warn("Failed to persist credential, continuing with in-memory token",
			logging.Err(err))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
