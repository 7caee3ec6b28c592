package twitch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// TokenSource fetches and caches a Twitch app access (client credentials)
// token. The cached token is reused until one minute before expiry, or until
// the streams endpoint rejects it and Invalidate is called.
type TokenSource struct {
	cfg clientcredentials.Config

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenSource creates a token source for the given Twitch application.
// tokenURL overrides the Twitch OAuth endpoint in tests; pass "" for the
// real one.
func NewTokenSource(clientID, clientSecret, tokenURL string) *TokenSource {
	if tokenURL == "" {
		tokenURL = "https://id.twitch.tv/oauth2/token"
	}
	return &TokenSource{
		cfg: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
		},
	}
}

// Get returns a valid (fresh or cached) app access token.
func (ts *TokenSource) Get(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && time.Until(ts.expiresAt) > 60*time.Second {
		return ts.token, nil
	}

	tok, err := ts.cfg.Token(ctx)
	if err != nil {
		return "", err
	}
	ts.token = tok.AccessToken
	ts.expiresAt = tok.Expiry
	return ts.token, nil
}

// Invalidate drops the cached token so the next Get fetches a fresh one.
// Called when Helix returns 401 despite the cached token looking valid.
func (ts *TokenSource) Invalidate() {
	ts.mu.Lock()
	ts.token = ""
	ts.expiresAt = time.Time{}
	ts.mu.Unlock()
}
