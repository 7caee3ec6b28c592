package bot

import (
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// handlePresenceUpdate reconciles the live role from Discord presence. This
// is the second live signal next to the Helix poller: members who stream
// with their Discord account connected get the role the moment their
// presence flips, without waiting for a poll tick.
func (b *Bot) handlePresenceUpdate(s *discordgo.Session, p *discordgo.PresenceUpdate) {
	if p.GuildID == "" || p.User == nil || p.User.ID == "" {
		return
	}

	cfg, err := b.store.GetOrCreateGuildConfig(p.GuildID)
	if err != nil {
		slog.Error("Failed to load guild config", "guild", p.GuildID, "error", err)
		return
	}
	if cfg.LiveRoleID == "" {
		return
	}
	// Only linked members participate; random members streaming anything
	// should not pick up the role.
	if _, linked := cfg.Twitch.LinkedAccounts[p.User.ID]; !linked {
		return
	}

	streaming := isStreamingOnTwitch(p.Activities)

	hasRole, err := b.memberHasRole(p.GuildID, p.User.ID, cfg.LiveRoleID)
	if err != nil {
		slog.Error("Failed to check member roles", "guild", p.GuildID, "member", p.User.ID, "error", err)
		return
	}

	switch {
	case streaming && !hasRole:
		if err := s.GuildMemberRoleAdd(p.GuildID, p.User.ID, cfg.LiveRoleID); err != nil {
			slog.Error("Failed to add live role", "guild", p.GuildID, "member", p.User.ID, "error", err)
			return
		}
		slog.Info("Live role added from presence", "guild", p.GuildID, "member", p.User.ID)
	case !streaming && hasRole:
		if err := s.GuildMemberRoleRemove(p.GuildID, p.User.ID, cfg.LiveRoleID); err != nil {
			slog.Error("Failed to remove live role", "guild", p.GuildID, "member", p.User.ID, "error", err)
			return
		}
		slog.Info("Live role removed from presence", "guild", p.GuildID, "member", p.User.ID)
	}
}

// isStreamingOnTwitch reports whether any activity is a Twitch stream.
// Presence updates carry the full current activity list, so absence of a
// streaming activity means the member stopped streaming.
func isStreamingOnTwitch(activities []*discordgo.Activity) bool {
	for _, activity := range activities {
		if activity == nil || activity.Type != discordgo.ActivityTypeStreaming {
			continue
		}
		if strings.Contains(strings.ToLower(activity.URL), "twitch.tv") {
			return true
		}
	}
	return false
}

// memberHasRole checks the state cache first and falls back to the API
func (b *Bot) memberHasRole(guildID, userID, roleID string) (bool, error) {
	member, err := b.session.State.Member(guildID, userID)
	if err != nil {
		member, err = b.session.GuildMember(guildID, userID)
		if err != nil {
			return false, err
		}
	}
	for _, id := range member.Roles {
		if id == roleID {
			return true, nil
		}
	}
	return false, nil
}
