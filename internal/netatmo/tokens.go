package netatmo

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"atmo/config"
)

const (
	// oauthScope is the only scope this tool needs.
	oauthScope = "read_station"

	tokenCacheKey = "access_token"
)

// TokenStore persists token state between invocations. It is implemented by
// *config.Config; the indirection keeps this package off the rc-file format.
type TokenStore interface {
	LoadTokens() *config.TokenState
	SaveTokens(state *config.TokenState) error
}

// TokenManager owns the access/refresh token pair. It hands out a valid
// access token, minting or refreshing one as needed, and persists every
// change through its TokenStore.
type TokenManager struct {
	creds  *config.Credentials
	store  TokenStore
	client *Client
	clock  Clock
	cache  *cache.Cache
	logger *slog.Logger

	mu sync.Mutex
}

// NewTokenManager creates a token manager. creds may be nil or incomplete;
// the manager then degrades to "cannot mint new token" instead of failing.
func NewTokenManager(creds *config.Credentials, store TokenStore, client *Client, clock Clock, logger *slog.Logger) *TokenManager {
	return &TokenManager{
		creds:  creds,
		store:  store,
		client: client,
		clock:  clock,
		cache:  cache.New(cache.NoExpiration, 10*time.Minute),
		logger: logger.With("component", "tokens"),
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Error        string `json:"error"`
}

// AccessToken returns a usable access token, or an error when none can be
// obtained. A token past its recorded expiration is never returned without
// a refresh attempt first. Each grant or refresh is exactly one request.
func (m *TokenManager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.cache.Get(tokenCacheKey); ok {
		state := v.(*config.TokenState)
		if m.clock.Now().Before(state.Expiration) {
			return state.AccessToken, nil
		}
		m.cache.Delete(tokenCacheKey)
	}

	// A refresh only needs the client pair; the user pair is checked
	// later, when a fresh password grant is actually required.
	if m.creds == nil || m.creds.ClientID == "" || m.creds.ClientSecret == "" {
		return "", ErrNoCredentials
	}

	state := m.store.LoadTokens()
	switch {
	case state == nil || state.AccessToken == "":
		return m.authenticate(ctx)
	case m.clock.Now().Before(state.Expiration):
		m.remember(state)
		return state.AccessToken, nil
	default:
		return m.refresh(ctx, state)
	}
}

// authenticate performs the password grant.
func (m *TokenManager) authenticate(ctx context.Context) (string, error) {
	if m.creds.Username == "" || m.creds.Password == "" {
		return "", ErrNoCredentials
	}
	return m.grant(ctx, "password", map[string]string{
		"grant_type":    "password",
		"client_id":     m.creds.ClientID,
		"client_secret": m.creds.ClientSecret,
		"username":      m.creds.Username,
		"password":      m.creds.Password,
		"scope":         oauthScope,
	})
}

// refresh exchanges the stored refresh token for a new pair. When upstream
// rejects the refresh token, the stored state is cleared so the next access
// falls back to a full password grant.
func (m *TokenManager) refresh(ctx context.Context, state *config.TokenState) (string, error) {
	token, err := m.grant(ctx, "refresh_token", map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": state.RefreshToken,
		"client_id":     m.creds.ClientID,
		"client_secret": m.creds.ClientSecret,
	})
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			m.cache.Delete(tokenCacheKey)
			if serr := m.store.SaveTokens(nil); serr != nil {
				m.logger.Warn("failed to clear rejected tokens", "error", serr)
			}
		}
		return "", err
	}
	return token, nil
}

// grant issues one token-endpoint request and persists the result.
func (m *TokenManager) grant(ctx context.Context, grantType string, form map[string]string) (string, error) {
	var resp tokenResponse
	if err := m.client.PostForm(ctx, authPath, form, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", &AuthError{Grant: grantType, Reason: resp.Error}
	}

	state := &config.TokenState{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		Expiration:   m.clock.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}
	if err := m.store.SaveTokens(state); err != nil {
		// Keep going with the in-memory token; the next invocation will
		// have to authenticate again.
		m.logger.Warn("failed to persist tokens", "error", err)
	}
	m.remember(state)

	m.logger.Info("access token obtained",
		"grant", grantType,
		"expires", state.Expiration.Format(time.RFC3339))
	return state.AccessToken, nil
}

func (m *TokenManager) remember(state *config.TokenState) {
	if ttl := state.Expiration.Sub(m.clock.Now()); ttl > 0 {
		m.cache.Set(tokenCacheKey, state, ttl)
	}
}
