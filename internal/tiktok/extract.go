package tiktok

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
)

func readBody(resp *http.Response) (string, error) {
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// postFromPageData walks the known shapes of the embedded page state and
// builds a Post from the newest item. Paths are tried in the order the
// platform has used them historically.
func postFromPageData(data map[string]any, username string) (*Post, error) {
	userData := findUserData(data, username)
	if userData == nil {
		return nil, fmt.Errorf("user data structure not found for @%s", username)
	}

	items := findPosts(data, userData)
	if len(items) == 0 {
		return nil, fmt.Errorf("no posts in page data for @%s", username)
	}

	latest, ok := items[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("malformed post entry for @%s", username)
	}

	post := &Post{
		ID:          firstString(latest, "id", "itemId"),
		Description: firstString(latest, "desc", "description", "title"),
		CreateTime:  asInt64(latest["createTime"]),
	}
	if post.ID == "" {
		if video, ok := latest["video"].(map[string]any); ok {
			post.ID = firstString(video, "id")
		}
	}
	if post.ID == "" {
		return nil, fmt.Errorf("post id missing for @%s", username)
	}
	if post.Description == "" {
		post.Description = "No description"
	}

	info := userInfo(userData)
	post.Author = Author{
		UniqueID:    firstString(info, "uniqueId"),
		Nickname:    firstString(info, "nickname"),
		AvatarThumb: firstString(info, "avatarThumb"),
	}
	if post.Author.UniqueID == "" {
		post.Author.UniqueID = username
	}
	if post.Author.Nickname == "" {
		post.Author.Nickname = username
	}
	return post, nil
}

// findUserData locates the user block under whichever path this page
// revision uses.
func findUserData(data map[string]any, username string) map[string]any {
	paths := [][]string{
		{"__DEFAULT_SCOPE__", "webapp.user-detail"},
		{"UserModule", "users", username},
		{"props", "pageProps", "userInfo"},
		{"ItemModule"},
	}
	for _, path := range paths {
		if m, ok := dig(data, path...).(map[string]any); ok && len(m) > 0 {
			return m
		}
	}
	return nil
}

// findPosts locates the post list, either inside the user block or at the
// top of the page state.
func findPosts(data, userData map[string]any) []any {
	if items, ok := userData["itemList"].([]any); ok && len(items) > 0 {
		return items
	}
	if items, ok := userData["items"].([]any); ok && len(items) > 0 {
		return items
	}
	if module, ok := data["ItemModule"].(map[string]any); ok && len(module) > 0 {
		items := make([]any, 0, len(module))
		for _, v := range module {
			items = append(items, v)
		}
		// The module is a map keyed by post ID, so it carries no order of
		// its own. Sort newest first before taking items[0].
		sortNewestFirst(items)
		return items
	}
	if items, ok := dig(data, "props", "pageProps", "items").([]any); ok && len(items) > 0 {
		return items
	}
	return nil
}

// userInfo unwraps the nested user object. Some revisions store the fields
// directly, others one level down under "userInfo" and/or "user".
func userInfo(userData map[string]any) map[string]any {
	m := userData
	if inner, ok := m["userInfo"].(map[string]any); ok {
		m = inner
	}
	if inner, ok := m["user"].(map[string]any); ok {
		m = inner
	}
	return m
}

// sortNewestFirst orders post entries by createTime descending, breaking
// ties (and missing timestamps) by numeric post ID. Post IDs grow
// monotonically, so the ID is a reliable secondary recency signal.
func sortNewestFirst(items []any) {
	sort.SliceStable(items, func(i, j int) bool {
		a, _ := items[i].(map[string]any)
		b, _ := items[j].(map[string]any)
		at, bt := asInt64(a["createTime"]), asInt64(b["createTime"])
		if at != bt {
			return at > bt
		}
		return numericID(a) > numericID(b)
	})
}

func numericID(m map[string]any) int64 {
	n, _ := strconv.ParseInt(firstString(m, "id", "itemId"), 10, 64)
	return n
}

func dig(data map[string]any, keys ...string) any {
	var cur any = data
	for _, key := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	}
	return 0
}
