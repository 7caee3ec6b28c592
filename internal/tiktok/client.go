// Package tiktok fetches creator posts by scraping the public web profile.
// There is no official API for this; the page embeds its state as JSON under
// a script tag whose identifier has changed several times, so extraction
// tries each known tag and data path in order. When the page yields nothing
// an unofficial JSON endpoint is tried as a fallback. Schema drift is
// expected and is treated as "no data this cycle", never as fatal.
package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"golang.org/x/time/rate"
)

// Post is the newest post on a monitored account.
type Post struct {
	ID          string
	Description string
	CreateTime  int64
	Author      Author
}

// Author identifies the account that made a post.
type Author struct {
	UniqueID    string
	Nickname    string
	AvatarThumb string
}

// URL returns the public URL for the post.
func (p *Post) URL() string {
	return fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", p.Author.UniqueID, p.ID)
}

// DisplayName returns the author's nickname, falling back to the handle.
func (p *Post) DisplayName() string {
	if p.Author.Nickname != "" {
		return p.Author.Nickname
	}
	return p.Author.UniqueID
}

const (
	desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
	mobileUserAgent  = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15"
)

// The embedded-state script tag has been renamed over time; try each known
// identifier until one parses.
var scriptTagPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)<script id="__UNIVERSAL_DATA_FOR_REHYDRATION__" type="application/json">(.*?)</script>`),
	regexp.MustCompile(`(?s)<script id="SIGI_STATE" type="application/json">(.*?)</script>`),
	regexp.MustCompile(`(?s)<script id="__NEXT_DATA__" type="application/json">(.*?)</script>`),
}

var validateMarker = regexp.MustCompile(`<script id="__UNIVERSAL_DATA_FOR_REHYDRATION__"`)

// Client scrapes TikTok profiles with a shared request throttle
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new scraping client. baseURL overrides
// https://www.tiktok.com in tests.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://www.tiktok.com"
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		// One request every two seconds keeps us under the anti-bot radar.
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

// Wait blocks until the next profile request is allowed. Callers invoke it
// between consecutive per-user checks.
func (c *Client) Wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

// LatestPost returns the newest post for a username, trying web scraping
// first and the unofficial API second.
func (c *Client) LatestPost(ctx context.Context, username string) (*Post, error) {
	post, webErr := c.latestPostViaWeb(ctx, username)
	if webErr == nil {
		return post, nil
	}

	post, apiErr := c.latestPostViaAPI(ctx, username)
	if apiErr == nil {
		return post, nil
	}
	return nil, fmt.Errorf("web: %v; api: %w", webErr, apiErr)
}

// ValidateUsername checks that a profile exists and still carries the
// embedded-data marker. It never returns an error; any failure means "not
// valid right now".
func (c *Client) ValidateUsername(ctx context.Context, username string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/@"+username, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", desktopUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}

	body, err := readBody(resp)
	if err != nil {
		return false
	}
	return validateMarker.MatchString(body)
}

// latestPostViaWeb fetches the public profile page and walks the known
// embedded-JSON structures.
func (c *Client) latestPostViaWeb(ctx context.Context, username string) (*Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/@"+username, nil)
	if err != nil {
		return nil, err
	}
	setBrowserHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("user not found: @%s", username)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile fetch failed: status %d", resp.StatusCode)
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	data, ok := extractEmbeddedJSON(body)
	if !ok {
		return nil, fmt.Errorf("no embedded page data for @%s", username)
	}
	return postFromPageData(data, username)
}

// latestPostViaAPI resolves the account's secUid from the unofficial
// user-detail endpoint, then lists its posts.
func (c *Client) latestPostViaAPI(ctx context.Context, username string) (*Post, error) {
	var detail struct {
		UserInfo struct {
			User struct {
				SecUID      string `json:"secUid"`
				UniqueID    string `json:"uniqueId"`
				Nickname    string `json:"nickname"`
				AvatarThumb string `json:"avatarThumb"`
			} `json:"user"`
		} `json:"userInfo"`
	}
	if err := c.getJSON(ctx, "/api/user/detail/?uniqueId="+username, username, &detail); err != nil {
		return nil, err
	}
	if detail.UserInfo.User.SecUID == "" {
		return nil, fmt.Errorf("no user info for @%s", username)
	}

	var items struct {
		ItemList []struct {
			ID         string `json:"id"`
			Desc       string `json:"desc"`
			CreateTime int64  `json:"createTime"`
		} `json:"itemList"`
	}
	if err := c.getJSON(ctx, "/api/post/item_list/?secUid="+detail.UserInfo.User.SecUID+"&count=10", username, &items); err != nil {
		return nil, err
	}
	if len(items.ItemList) == 0 {
		return nil, fmt.Errorf("no posts for @%s", username)
	}

	latest := items.ItemList[0]
	return &Post{
		ID:          latest.ID,
		Description: latest.Desc,
		CreateTime:  latest.CreateTime,
		Author: Author{
			UniqueID:    detail.UserInfo.User.UniqueID,
			Nickname:    detail.UserInfo.User.Nickname,
			AvatarThumb: detail.UserInfo.User.AvatarThumb,
		},
	}, nil
}

func (c *Client) getJSON(ctx context.Context, path, username string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", mobileUserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", c.baseURL+"/@"+username)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api request failed: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", desktopUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Cache-Control", "max-age=0")
}

// extractEmbeddedJSON tries each known script tag until one parses.
func extractEmbeddedJSON(html string) (map[string]any, bool) {
	for _, pattern := range scriptTagPatterns {
		m := pattern.FindStringSubmatch(html)
		if m == nil {
			continue
		}
		var data map[string]any
		if err := json.Unmarshal([]byte(m[1]), &data); err != nil {
			continue
		}
		return data, true
	}
	return nil, false
}
