package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(
		context.Background(),
		"test-key",
		option.WithEndpoint(srv.URL),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return client
}

func TestLatestVideo(t *testing.T) {
	client := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "UCabcdefghijklmnopqrstuv", r.URL.Query().Get("channelId"))
		assert.Equal(t, "date", r.URL.Query().Get("order"))
		fmt.Fprint(w, `{
			"items": [{
				"id": {"videoId": "vid-1"},
				"snippet": {
					"title": "Newest Video",
					"channelId": "UCabcdefghijklmnopqrstuv",
					"channelTitle": "My Channel",
					"publishedAt": "2024-01-01T00:00:00Z"
				}
			}]
		}`)
	})

	video, err := client.LatestVideo(context.Background(), "UCabcdefghijklmnopqrstuv")
	require.NoError(t, err)
	require.NotNil(t, video)
	assert.Equal(t, "vid-1", video.ID)
	assert.Equal(t, "Newest Video", video.Title)
	assert.Equal(t, "My Channel", video.ChannelTitle)
	assert.Equal(t, "https://www.youtube.com/watch?v=vid-1", video.URL())
}

func TestLatestVideoEmptyChannel(t *testing.T) {
	client := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items": []}`)
	})

	video, err := client.LatestVideo(context.Background(), "UCabcdefghijklmnopqrstuv")
	require.NoError(t, err)
	assert.Nil(t, video)
}

func TestResolveChannelIDRawID(t *testing.T) {
	client := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no API call expected for a raw channel ID")
	})

	id, err := client.ResolveChannelID(context.Background(), "UCabcdefghijklmnopqrstuv")
	require.NoError(t, err)
	assert.Equal(t, "UCabcdefghijklmnopqrstuv", id)
}

func TestResolveChannelIDFromChannelURL(t *testing.T) {
	client := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no API call expected for a channel URL")
	})

	id, err := client.ResolveChannelID(context.Background(), "https://www.youtube.com/channel/UCabcdefghijklmnopqrstuv")
	require.NoError(t, err)
	assert.Equal(t, "UCabcdefghijklmnopqrstuv", id)
}

func TestResolveChannelIDFromHandle(t *testing.T) {
	client := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "@somecreator", r.URL.Query().Get("q"))
		fmt.Fprint(w, `{
			"items": [{"snippet": {"channelId": "UCabcdefghijklmnopqrstuv"}}]
		}`)
	})

	id, err := client.ResolveChannelID(context.Background(), "@somecreator")
	require.NoError(t, err)
	assert.Equal(t, "UCabcdefghijklmnopqrstuv", id)
}

func TestResolveChannelIDFromHandleURL(t *testing.T) {
	client := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"items": [{"snippet": {"channelId": "UCabcdefghijklmnopqrstuv"}}]
		}`)
	})

	id, err := client.ResolveChannelID(context.Background(), "https://youtube.com/@somecreator")
	require.NoError(t, err)
	assert.Equal(t, "UCabcdefghijklmnopqrstuv", id)
}

func TestResolveChannelIDUnrecognized(t *testing.T) {
	client := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no API call expected")
	})

	_, err := client.ResolveChannelID(context.Background(), "not a channel at all")
	assert.Error(t, err)
}

func TestResolveChannelIDNoResults(t *testing.T) {
	client := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items": []}`)
	})

	_, err := client.ResolveChannelID(context.Background(), "@missing")
	assert.Error(t, err)
}

func TestIsChannelID(t *testing.T) {
	assert.True(t, IsChannelID("UCabcdefghijklmnopqrstuv"))
	assert.False(t, IsChannelID("abcdefghijklmnopqrstuvwx"))
	assert.False(t, IsChannelID("UCshort"))
	assert.False(t, IsChannelID("@handle"))
}
