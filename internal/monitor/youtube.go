package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/store"
	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/telemetry"
	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/youtube"
)

// VideoSource fetches the newest video on a channel. The YouTube client
// satisfies it.
type VideoSource interface {
	LatestVideo(ctx context.Context, channelID string) (*youtube.Video, error)
}

// VideoNotifier delivers upload notifications.
type VideoNotifier interface {
	NotifyVideo(cfg *store.GuildConfig, video *youtube.Video) error
}

// YouTubeMonitor detects new uploads on monitored channels.
type YouTubeMonitor struct {
	scheduler
	configs  ConfigSource
	source   VideoSource
	notifier VideoNotifier

	// guild ID -> channel ID -> last seen video ID. Entries persist for the
	// process lifetime; videos never "go away".
	lastVideo map[string]map[string]string
}

// NewYouTubeMonitor creates a YouTube monitor polling at the given interval
func NewYouTubeMonitor(configs ConfigSource, source VideoSource, notifier VideoNotifier, interval time.Duration) *YouTubeMonitor {
	return &YouTubeMonitor{
		scheduler: newScheduler("youtube", interval),
		configs:   configs,
		source:    source,
		notifier:  notifier,
		lastVideo: make(map[string]map[string]string),
	}
}

// Start begins the polling loop. Blocks until Stop or context cancellation.
func (m *YouTubeMonitor) Start(ctx context.Context) {
	m.run(ctx, m.checkVideos)
}

// Stop signals the monitor to stop and waits for the current tick
func (m *YouTubeMonitor) Stop() {
	m.stop()
}

// checkVideos is one poll tick across all guilds
func (m *YouTubeMonitor) checkVideos(ctx context.Context) {
	configs, err := m.configs.GuildConfigs()
	if err != nil {
		slog.Error("Failed to load guild configs", "platform", "youtube", "error", err)
		return
	}

	for _, cfg := range configs {
		if cfg.ChannelID == "" || len(cfg.YouTube.ChannelIDs) == 0 {
			continue
		}

		guildLast, ok := m.lastVideo[cfg.GuildID]
		if !ok {
			guildLast = make(map[string]string)
			m.lastVideo[cfg.GuildID] = guildLast
		}

		for _, channelID := range cfg.YouTube.ChannelIDs {
			select {
			case <-ctx.Done():
				return
			default:
			}
			m.checkChannel(ctx, cfg, guildLast, channelID)
		}
	}
}

// checkChannel reconciles one channel against its last seen video
func (m *YouTubeMonitor) checkChannel(ctx context.Context, cfg *store.GuildConfig, guildLast map[string]string, channelID string) {
	video, err := m.source.LatestVideo(ctx, channelID)
	if err != nil {
		slog.Error("Failed to check channel", "guild", cfg.GuildID, "channel", channelID, "error", err)
		telemetry.CountFetchError("youtube")
		return
	}
	if video == nil {
		return
	}

	lastID, seen := guildLast[channelID]
	switch {
	case !seen:
		// Baseline observation: seed the cache, never notify. Avoids a
		// notification storm on restart or when a channel is first added.
		guildLast[channelID] = video.ID
		slog.Info("Initialized channel tracking", "guild", cfg.GuildID, "channel", channelID, "video", video.ID)
	case video.ID != lastID:
		guildLast[channelID] = video.ID
		slog.Info("New video detected", "guild", cfg.GuildID, "channel", channelID, "video", video.ID)
		if err := m.notifier.NotifyVideo(cfg, video); err != nil {
			slog.Error("Failed to send video notification", "guild", cfg.GuildID, "channel", channelID, "error", err)
		} else {
			telemetry.CountNotification("youtube")
		}
	}
}

// CheckSpecificChannels fetches the current newest video of the given
// channels without consulting or mutating the runtime cache. Used by the
// manual nudge command.
func (m *YouTubeMonitor) CheckSpecificChannels(ctx context.Context, channelIDs []string) []*youtube.Video {
	var videos []*youtube.Video
	for _, channelID := range channelIDs {
		video, err := m.source.LatestVideo(ctx, channelID)
		if err != nil {
			slog.Error("Failed to check channel", "channel", channelID, "error", err)
			continue
		}
		if video != nil {
			videos = append(videos, video)
		}
	}
	return videos
}
