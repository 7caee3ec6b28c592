package twitch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, requests *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requests++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"token-%d","token_type":"bearer","expires_in":3600}`, *requests)
	}))
}

func TestTokenSourceCachesToken(t *testing.T) {
	requests := 0
	srv := newTokenServer(t, &requests)
	defer srv.Close()

	ts := NewTokenSource("id", "secret", srv.URL)

	token, err := ts.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)

	// Second call reuses the cached token
	token, err = ts.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
	assert.Equal(t, 1, requests)
}

func TestTokenSourceInvalidate(t *testing.T) {
	requests := 0
	srv := newTokenServer(t, &requests)
	defer srv.Close()

	ts := NewTokenSource("id", "secret", srv.URL)

	_, err := ts.Get(context.Background())
	require.NoError(t, err)

	ts.Invalidate()

	token, err := ts.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
	assert.Equal(t, 2, requests)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	tokenRequests := 0
	tokenSrv := newTokenServer(t, &tokenRequests)
	t.Cleanup(tokenSrv.Close)

	helixSrv := httptest.NewServer(handler)
	t.Cleanup(helixSrv.Close)

	return NewClient("client-id", NewTokenSource("id", "secret", tokenSrv.URL), helixSrv.URL), helixSrv
}

func TestStreamByLoginLive(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/streams", r.URL.Path)
		assert.Equal(t, "ninja", r.URL.Query().Get("user_login"))
		assert.Equal(t, "client-id", r.Header.Get("Client-Id"))
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"data":[{
			"id":"1","user_login":"ninja","user_name":"Ninja",
			"game_id":"33214","game_name":"Fortnite","type":"live",
			"title":"Big Stream","viewer_count":1234
		}]}`)
	})

	stream, err := client.StreamByLogin(context.Background(), "ninja")
	require.NoError(t, err)
	require.NotNil(t, stream)
	assert.Equal(t, "Ninja", stream.UserName)
	assert.Equal(t, "Fortnite", stream.GameName)
	assert.Equal(t, 1234, stream.ViewerCount)
	assert.Equal(t, "https://twitch.tv/ninja", stream.URL())
}

func TestStreamByLoginOffline(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	})

	stream, err := client.StreamByLogin(context.Background(), "ninja")
	require.NoError(t, err)
	assert.Nil(t, stream)
}

func TestStreamByLoginIgnoresNonLive(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"id":"1","user_login":"ninja","type":""}]}`)
	})

	// Helix occasionally reports non-live entries during transitions
	stream, err := client.StreamByLogin(context.Background(), "ninja")
	require.NoError(t, err)
	assert.Nil(t, stream)
}

func TestStreamByLoginUnauthorized(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.StreamByLogin(context.Background(), "ninja")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestStreamByLoginServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.StreamByLogin(context.Background(), "ninja")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestStreamByLoginEmptyLogin(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := client.StreamByLogin(context.Background(), "")
	assert.Error(t, err)
}
