// Package twitch contains the helpers needed to watch live broadcasts via
// the Twitch Helix API using an app access token.
package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnauthorized is returned when Helix rejects the app token. The caller
// is expected to invalidate the token and retry on its next poll tick.
var ErrUnauthorized = errors.New("twitch: unauthorized")

// Stream is one entry from the Helix streams endpoint. Only present while
// the broadcast is active.
type Stream struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	UserLogin    string `json:"user_login"`
	UserName     string `json:"user_name"`
	GameID       string `json:"game_id"`
	GameName     string `json:"game_name"`
	Type         string `json:"type"`
	Title        string `json:"title"`
	ViewerCount  int    `json:"viewer_count"`
	StartedAt    string `json:"started_at"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// URL returns the public channel URL for the stream.
func (s *Stream) URL() string {
	return "https://twitch.tv/" + s.UserLogin
}

// Client is a minimal Helix client for stream lookups
type Client struct {
	tokens     *TokenSource
	clientID   string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Helix client. baseURL overrides the Helix API root
// in tests; pass "" for the real one.
func NewClient(clientID string, tokens *TokenSource, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.twitch.tv/helix"
	}
	return &Client{
		tokens:   tokens,
		clientID: clientID,
		baseURL:  baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// InvalidateToken drops the cached app token after a 401.
func (c *Client) InvalidateToken() {
	c.tokens.Invalidate()
}

// StreamByLogin returns the active live broadcast for a username, or nil when
// the streamer is offline. A 401 response surfaces as ErrUnauthorized.
func (c *Client) StreamByLogin(ctx context.Context, login string) (*Stream, error) {
	if login == "" {
		return nil, fmt.Errorf("login empty")
	}
	token, err := c.tokens.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get app token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/streams", nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("user_login", login)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Client-Id", c.clientID)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("streams request failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var body struct {
		Data []Stream `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode streams response: %w", err)
	}

	if len(body.Data) == 0 || body.Data[0].Type != "live" {
		return nil, nil
	}
	return &body.Data[0], nil
}
