// Package youtube wraps the YouTube Data API v3 for upload detection and
// channel-ID resolution. All requests are keyed by an API key, no OAuth.
package youtube

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

// Video describes the newest upload on a monitored channel.
type Video struct {
	ID           string
	Title        string
	ChannelID    string
	ChannelTitle string
	Description  string
	PublishedAt  string
}

// URL returns the public watch URL for the video.
func (v *Video) URL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}

// Client fetches channel data from the YouTube Data API
type Client struct {
	svc *yt.Service
}

// NewClient creates a new YouTube Data API client. Extra options (endpoint
// and HTTP client overrides) are used by tests.
func NewClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// LatestVideo returns the newest video on a channel, or nil when the channel
// has no videos.
func (c *Client) LatestVideo(ctx context.Context, channelID string) (*Video, error) {
	resp, err := c.svc.Search.List([]string{"snippet"}).
		ChannelId(channelID).
		Order("date").
		MaxResults(1).
		Type("video").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("search failed for channel %s: %w", channelID, err)
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}

	item := resp.Items[0]
	if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
		return nil, fmt.Errorf("malformed search result for channel %s", channelID)
	}
	return &Video{
		ID:           item.Id.VideoId,
		Title:        item.Snippet.Title,
		ChannelID:    item.Snippet.ChannelId,
		ChannelTitle: item.Snippet.ChannelTitle,
		Description:  item.Snippet.Description,
		PublishedAt:  item.Snippet.PublishedAt,
	}, nil
}

var (
	channelURLPattern = regexp.MustCompile(`youtube\.com/channel/(UC[\w-]{22})`)
	handleURLPattern  = regexp.MustCompile(`youtube\.com/@([\w.-]+)`)
	customURLPattern  = regexp.MustCompile(`youtube\.com/c/([\w.-]+)`)
	userURLPattern    = regexp.MustCompile(`youtube\.com/user/([\w.-]+)`)
)

// ResolveChannelID extracts a channel ID from whatever the user pasted: a
// raw UC... ID, an @handle, or a channel URL in any of the historical
// formats. Handles and legacy names go through a channel search.
func (c *Client) ResolveChannelID(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)

	// Already a channel ID
	if IsChannelID(input) {
		return input, nil
	}

	if strings.HasPrefix(input, "@") {
		return c.searchChannel(ctx, input)
	}

	if strings.Contains(input, "youtube.com") || strings.Contains(input, "youtu.be") {
		if m := channelURLPattern.FindStringSubmatch(input); m != nil {
			return m[1], nil
		}
		for _, p := range []*regexp.Regexp{handleURLPattern, customURLPattern, userURLPattern} {
			if m := p.FindStringSubmatch(input); m != nil {
				return c.searchChannel(ctx, m[1])
			}
		}
	}

	return "", fmt.Errorf("unrecognized channel format: %s", input)
}

// IsChannelID reports whether the input is a raw UC... channel ID.
func IsChannelID(input string) bool {
	return strings.HasPrefix(input, "UC") && len(input) == 24
}

func (c *Client) searchChannel(ctx context.Context, query string) (string, error) {
	resp, err := c.svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("channel").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("channel search failed for %q: %w", query, err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil || resp.Items[0].Snippet.ChannelId == "" {
		return "", fmt.Errorf("no channel found for %q", query)
	}
	return resp.Items[0].Snippet.ChannelId, nil
}
