package monitor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/store"
	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/telemetry"
	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/twitch"
)

// StreamSource fetches the current live state of a streamer. The Helix
// client satisfies it.
type StreamSource interface {
	StreamByLogin(ctx context.Context, login string) (*twitch.Stream, error)
	InvalidateToken()
}

// StreamNotifier delivers live notifications and in-place updates.
type StreamNotifier interface {
	NotifyStream(cfg *store.GuildConfig, stream *twitch.Stream) (channelID, messageID string, err error)
	UpdateStream(channelID, messageID string, cfg *store.GuildConfig, stream *twitch.Stream) error
}

// liveState is the runtime entry kept per (guild, username) while a streamer
// is observed live. Its absence means "believed offline".
type liveState struct {
	gameID    string
	channelID string
	messageID string
	memberID  string // linked Discord member holding the live role, if any
}

// TwitchMonitor detects live/offline transitions and category changes for
// every monitored streamer in every guild.
type TwitchMonitor struct {
	scheduler
	configs  ConfigSource
	source   StreamSource
	notifier StreamNotifier
	roles    RoleManager

	// guild ID -> username -> state; touched only from scheduled ticks
	live map[string]map[string]*liveState
}

// NewTwitchMonitor creates a Twitch monitor polling at the given interval
func NewTwitchMonitor(configs ConfigSource, source StreamSource, notifier StreamNotifier, roles RoleManager, interval time.Duration) *TwitchMonitor {
	return &TwitchMonitor{
		scheduler: newScheduler("twitch", interval),
		configs:   configs,
		source:    source,
		notifier:  notifier,
		roles:     roles,
		live:      make(map[string]map[string]*liveState),
	}
}

// Start begins the polling loop. Blocks until Stop or context cancellation.
func (m *TwitchMonitor) Start(ctx context.Context) {
	m.run(ctx, m.checkStreams)
}

// Stop signals the monitor to stop and waits for the current tick
func (m *TwitchMonitor) Stop() {
	m.stop()
}

// checkStreams is one poll tick across all guilds
func (m *TwitchMonitor) checkStreams(ctx context.Context) {
	configs, err := m.configs.GuildConfigs()
	if err != nil {
		slog.Error("Failed to load guild configs", "platform", "twitch", "error", err)
		return
	}

	for _, cfg := range configs {
		if cfg.ChannelID == "" || len(cfg.Twitch.Usernames) == 0 {
			continue
		}

		guildLive, ok := m.live[cfg.GuildID]
		if !ok {
			guildLive = make(map[string]*liveState)
			m.live[cfg.GuildID] = guildLive
		}

		for _, username := range cfg.Twitch.Usernames {
			select {
			case <-ctx.Done():
				return
			default:
			}
			m.checkStreamer(ctx, cfg, guildLive, username)
		}
	}
}

// checkStreamer reconciles one streamer against the runtime state
func (m *TwitchMonitor) checkStreamer(ctx context.Context, cfg *store.GuildConfig, guildLive map[string]*liveState, username string) {
	stream, err := m.source.StreamByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, twitch.ErrUnauthorized) {
			// Token expired: drop the cached one and let this streamer be
			// rechecked on the next tick with a fresh token.
			slog.Info("Twitch token expired, refreshing", "guild", cfg.GuildID, "username", username)
			m.source.InvalidateToken()
			return
		}
		slog.Error("Failed to check stream", "guild", cfg.GuildID, "username", username, "error", err)
		telemetry.CountFetchError("twitch")
		return
	}

	state, wasLive := guildLive[username]

	if stream == nil {
		if !wasLive {
			return
		}
		// LIVE -> OFFLINE
		delete(guildLive, username)
		slog.Info("Streamer went offline", "guild", cfg.GuildID, "username", username)
		if cfg.LiveRoleID != "" && state.memberID != "" {
			if err := m.roles.RemoveRole(cfg.GuildID, state.memberID, cfg.LiveRoleID); err != nil {
				slog.Error("Failed to remove live role", "guild", cfg.GuildID, "member", state.memberID, "error", err)
			}
		}
		return
	}

	if !wasLive {
		// OFFLINE -> LIVE
		state = &liveState{gameID: stream.GameID}
		guildLive[username] = state

		channelID, messageID, err := m.notifier.NotifyStream(cfg, stream)
		if err != nil {
			// The stream is still tracked as live so the notification is not
			// retried every tick.
			slog.Error("Failed to send stream notification", "guild", cfg.GuildID, "username", username, "error", err)
		} else {
			state.channelID = channelID
			state.messageID = messageID
			telemetry.CountNotification("twitch")
			slog.Info("Sent live notification", "guild", cfg.GuildID, "username", username, "game", stream.GameName)
		}

		if cfg.LiveRoleID != "" {
			if memberID := cfg.Twitch.LinkedMember(username); memberID != "" {
				state.memberID = memberID
				if err := m.roles.AddRole(cfg.GuildID, memberID, cfg.LiveRoleID); err != nil {
					slog.Error("Failed to add live role", "guild", cfg.GuildID, "member", memberID, "error", err)
				}
			}
		}
		return
	}

	if state.gameID != stream.GameID {
		// LIVE -> LIVE with a category change: edit the original message
		// instead of posting a duplicate.
		slog.Info("Stream category changed", "guild", cfg.GuildID, "username", username, "game", stream.GameName)
		if state.messageID != "" {
			if err := m.notifier.UpdateStream(state.channelID, state.messageID, cfg, stream); err != nil {
				// The original message may have been deleted; nothing to update.
				slog.Debug("Could not update stream notification", "guild", cfg.GuildID, "username", username, "error", err)
			}
		}
		state.gameID = stream.GameID
	}
}

// CheckSpecificStreamers fetches the current live state of the given
// usernames without consulting or mutating the runtime cache. Used by the
// manual nudge command.
func (m *TwitchMonitor) CheckSpecificStreamers(ctx context.Context, usernames []string) []*twitch.Stream {
	var streams []*twitch.Stream
	for _, username := range usernames {
		stream, err := m.source.StreamByLogin(ctx, username)
		if err != nil {
			slog.Error("Failed to check stream", "username", username, "error", err)
			continue
		}
		if stream != nil {
			streams = append(streams, stream)
		}
	}
	return streams
}
