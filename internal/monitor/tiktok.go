package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/store"
	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/telemetry"
	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/tiktok"
)

// PostSource fetches the newest post of a TikTok account. Wait throttles
// consecutive requests; the scraping client satisfies both.
type PostSource interface {
	LatestPost(ctx context.Context, username string) (*tiktok.Post, error)
	Wait(ctx context.Context) error
}

// PostNotifier delivers new-post notifications.
type PostNotifier interface {
	NotifyPost(cfg *store.GuildConfig, post *tiktok.Post) error
}

// TikTokMonitor detects new posts on monitored accounts. All data comes from
// scraping, so a fetch that fails every strategy is just "no data this
// cycle": cached state stays put and the remaining accounts are still
// checked.
type TikTokMonitor struct {
	scheduler
	configs  ConfigSource
	source   PostSource
	notifier PostNotifier

	// guild ID -> username -> last seen post ID
	lastPost map[string]map[string]string
}

// NewTikTokMonitor creates a TikTok monitor polling at the given interval
func NewTikTokMonitor(configs ConfigSource, source PostSource, notifier PostNotifier, interval time.Duration) *TikTokMonitor {
	return &TikTokMonitor{
		scheduler: newScheduler("tiktok", interval),
		configs:   configs,
		source:    source,
		notifier:  notifier,
		lastPost:  make(map[string]map[string]string),
	}
}

// Start begins the polling loop. Blocks until Stop or context cancellation.
func (m *TikTokMonitor) Start(ctx context.Context) {
	m.run(ctx, m.checkPosts)
}

// Stop signals the monitor to stop and waits for the current tick
func (m *TikTokMonitor) Stop() {
	m.stop()
}

// checkPosts is one poll tick across all guilds
func (m *TikTokMonitor) checkPosts(ctx context.Context) {
	configs, err := m.configs.GuildConfigs()
	if err != nil {
		slog.Error("Failed to load guild configs", "platform", "tiktok", "error", err)
		return
	}

	for _, cfg := range configs {
		if cfg.ChannelID == "" || len(cfg.TikTok.Usernames) == 0 {
			continue
		}

		guildLast, ok := m.lastPost[cfg.GuildID]
		if !ok {
			guildLast = make(map[string]string)
			m.lastPost[cfg.GuildID] = guildLast
		}

		for _, username := range cfg.TikTok.Usernames {
			if err := m.source.Wait(ctx); err != nil {
				return
			}
			m.checkAccount(ctx, cfg, guildLast, username)
		}
	}
}

// checkAccount reconciles one account against its last seen post
func (m *TikTokMonitor) checkAccount(ctx context.Context, cfg *store.GuildConfig, guildLast map[string]string, username string) {
	post, err := m.source.LatestPost(ctx, username)
	if err != nil {
		slog.Error("Failed to check account", "guild", cfg.GuildID, "username", username, "error", err)
		telemetry.CountFetchError("tiktok")
		return
	}

	lastID, seen := guildLast[username]
	switch {
	case !seen:
		guildLast[username] = post.ID
		slog.Info("Initialized account tracking", "guild", cfg.GuildID, "username", username, "post", post.ID)
	case post.ID != lastID:
		guildLast[username] = post.ID
		slog.Info("New post detected", "guild", cfg.GuildID, "username", username, "post", post.ID)
		if err := m.notifier.NotifyPost(cfg, post); err != nil {
			slog.Error("Failed to send post notification", "guild", cfg.GuildID, "username", username, "error", err)
		} else {
			telemetry.CountNotification("tiktok")
		}
	}
}

// CheckSpecificAccounts fetches the current newest post of the given
// accounts without consulting or mutating the runtime cache. Used by the
// manual nudge command. The same request throttle applies.
func (m *TikTokMonitor) CheckSpecificAccounts(ctx context.Context, usernames []string) []*tiktok.Post {
	var posts []*tiktok.Post
	for _, username := range usernames {
		if err := m.source.Wait(ctx); err != nil {
			return posts
		}
		post, err := m.source.LatestPost(ctx, username)
		if err != nil {
			slog.Error("Failed to check account", "username", username, "error", err)
			continue
		}
		posts = append(posts, post)
	}
	return posts
}
