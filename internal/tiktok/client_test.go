package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profilePage(scriptID, payload string) string {
	return fmt.Sprintf(
		`<!DOCTYPE html><html><head></head><body><script id=%q type="application/json">%s</script></body></html>`,
		scriptID, payload,
	)
}

const universalData = `{
	"__DEFAULT_SCOPE__": {
		"webapp.user-detail": {
			"userInfo": {
				"user": {"uniqueId": "creator", "nickname": "Creator", "avatarThumb": "https://example.com/a.jpg"}
			},
			"itemList": [
				{"id": "7001", "desc": "newest post", "createTime": 1700000000},
				{"id": "7000", "desc": "older post", "createTime": 1690000000}
			]
		}
	}
}`

const sigiState = `{
	"UserModule": {
		"users": {
			"creator": {"uniqueId": "creator", "nickname": "Creator"}
		}
	},
	"ItemModule": {
		"7002": {"id": "7002", "desc": "sigi post", "createTime": 1700000001}
	}
}`

const sigiStateMultiItem = `{
	"UserModule": {
		"users": {
			"creator": {"uniqueId": "creator", "nickname": "Creator"}
		}
	},
	"ItemModule": {
		"7001": {"id": "7001", "desc": "oldest", "createTime": 1700000001},
		"7004": {"id": "7004", "desc": "newest", "createTime": 1700000004},
		"7002": {"id": "7002", "desc": "older", "createTime": 1700000002},
		"7003": {"id": "7003", "desc": "old", "createTime": 1700000003}
	}
}`

const nextData = `{
	"props": {
		"pageProps": {
			"userInfo": {
				"user": {"uniqueId": "creator", "nickname": "Creator"}
			},
			"items": [
				{"itemId": "7003", "description": "next post"}
			]
		}
	}
}`

func newProfileServer(t *testing.T, html string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/@creator", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprint(w, html)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestLatestPostUniversalData(t *testing.T) {
	client := newProfileServer(t, profilePage("__UNIVERSAL_DATA_FOR_REHYDRATION__", universalData))

	post, err := client.LatestPost(context.Background(), "creator")
	require.NoError(t, err)
	assert.Equal(t, "7001", post.ID)
	assert.Equal(t, "newest post", post.Description)
	assert.Equal(t, int64(1700000000), post.CreateTime)
	assert.Equal(t, "creator", post.Author.UniqueID)
	assert.Equal(t, "Creator", post.Author.Nickname)
	assert.Equal(t, "https://www.tiktok.com/@creator/video/7001", post.URL())
}

func TestLatestPostSigiState(t *testing.T) {
	client := newProfileServer(t, profilePage("SIGI_STATE", sigiState))

	post, err := client.LatestPost(context.Background(), "creator")
	require.NoError(t, err)
	assert.Equal(t, "7002", post.ID)
	assert.Equal(t, "sigi post", post.Description)
	assert.Equal(t, "creator", post.Author.UniqueID)
}

func TestLatestPostSigiStateMultipleItems(t *testing.T) {
	client := newProfileServer(t, profilePage("SIGI_STATE", sigiStateMultiItem))

	post, err := client.LatestPost(context.Background(), "creator")
	require.NoError(t, err)
	assert.Equal(t, "7004", post.ID)
	assert.Equal(t, "newest", post.Description)
}

func TestPostFromPageDataOrderIsStable(t *testing.T) {
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(sigiStateMultiItem), &data))

	// ItemModule is a map keyed by post ID; repeated extraction of the same
	// page must always yield the same newest post.
	for i := 0; i < 50; i++ {
		post, err := postFromPageData(data, "creator")
		require.NoError(t, err)
		require.Equal(t, "7004", post.ID)
	}
}

func TestPostFromPageDataFallsBackToNumericID(t *testing.T) {
	payload := `{
		"UserModule": {"users": {"creator": {"uniqueId": "creator"}}},
		"ItemModule": {
			"7009": {"id": "7009", "desc": "older"},
			"7010": {"id": "7010", "desc": "newer"}
		}
	}`
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(payload), &data))

	for i := 0; i < 50; i++ {
		post, err := postFromPageData(data, "creator")
		require.NoError(t, err)
		require.Equal(t, "7010", post.ID)
	}
}

func TestLatestPostNextData(t *testing.T) {
	client := newProfileServer(t, profilePage("__NEXT_DATA__", nextData))

	post, err := client.LatestPost(context.Background(), "creator")
	require.NoError(t, err)
	assert.Equal(t, "7003", post.ID)
	assert.Equal(t, "next post", post.Description)
}

func TestLatestPostEmptyDescription(t *testing.T) {
	payload := `{
		"__DEFAULT_SCOPE__": {
			"webapp.user-detail": {
				"userInfo": {"user": {"uniqueId": "creator"}},
				"itemList": [{"id": "7004"}]
			}
		}
	}`
	client := newProfileServer(t, profilePage("__UNIVERSAL_DATA_FOR_REHYDRATION__", payload))

	post, err := client.LatestPost(context.Background(), "creator")
	require.NoError(t, err)
	assert.Equal(t, "No description", post.Description)
	assert.Equal(t, "creator", post.DisplayName())
}

func TestLatestPostFallsBackToAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/@creator":
			// Profile page without embedded data forces the API path
			fmt.Fprint(w, "<html><body>nothing here</body></html>")
		case "/api/user/detail/":
			assert.Equal(t, "creator", r.URL.Query().Get("uniqueId"))
			fmt.Fprint(w, `{"userInfo":{"user":{"secUid":"SEC123","uniqueId":"creator","nickname":"Creator"}}}`)
		case "/api/post/item_list/":
			assert.Equal(t, "SEC123", r.URL.Query().Get("secUid"))
			fmt.Fprint(w, `{"itemList":[{"id":"7005","desc":"api post","createTime":1700000002}]}`)
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	post, err := client.LatestPost(context.Background(), "creator")
	require.NoError(t, err)
	assert.Equal(t, "7005", post.ID)
	assert.Equal(t, "api post", post.Description)
	assert.Equal(t, "Creator", post.Author.Nickname)
}

func TestLatestPostAllStrategiesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.LatestPost(context.Background(), "creator")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "web:")
	assert.Contains(t, err.Error(), "api:")
}

func TestLatestPostUserNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.LatestPost(context.Background(), "creator")
	assert.Error(t, err)
}

func TestValidateUsername(t *testing.T) {
	client := newProfileServer(t, profilePage("__UNIVERSAL_DATA_FOR_REHYDRATION__", universalData))
	assert.True(t, client.ValidateUsername(context.Background(), "creator"))
}

func TestValidateUsernameMissingMarker(t *testing.T) {
	client := newProfileServer(t, "<html><body>captcha</body></html>")
	assert.False(t, client.ValidateUsername(context.Background(), "creator"))
}

func TestValidateUsernameNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	assert.False(t, client.ValidateUsername(context.Background(), "creator"))
}
