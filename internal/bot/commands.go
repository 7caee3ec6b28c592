package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/store"
)

// Slash command definitions
func (b *Bot) getCommandDefinitions() []*discordgo.ApplicationCommand {
	adminOnly := int64(discordgo.PermissionAdministrator)

	return []*discordgo.ApplicationCommand{
		{
			Name:        "setup",
			Description: "Set the notification channel for this server",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "The channel to send notifications to",
					Required:    true,
					ChannelTypes: []discordgo.ChannelType{
						discordgo.ChannelTypeGuildText,
					},
				},
			},
		},
		{
			Name:        "addstreamer",
			Description: "Add a Twitch streamer to the monitoring list",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "username",
					Description: "Twitch username",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "message",
					Description: "Custom notification message for this streamer ({username}, {title}, {game}, {url})",
					Required:    false,
				},
			},
		},
		{
			Name:        "removestreamer",
			Description: "Remove a Twitch streamer from the monitoring list",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "username",
					Description: "Twitch username",
					Required:    true,
				},
			},
		},
		{
			Name:        "liststreamers",
			Description: "Show all monitored Twitch streamers",
		},
		{
			Name:        "addchannel",
			Description: "Add a YouTube channel to the monitoring list",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "channel",
					Description: "YouTube channel URL, @handle, or channel ID (UC...)",
					Required:    true,
				},
			},
		},
		{
			Name:        "removechannel",
			Description: "Remove a YouTube channel from the monitoring list",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "channel",
					Description: "YouTube channel URL, @handle, or channel ID (UC...)",
					Required:    true,
				},
			},
		},
		{
			Name:        "listchannels",
			Description: "Show all monitored YouTube channels",
		},
		{
			Name:        "addtiktok",
			Description: "Add a TikTok account to the monitoring list",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "username",
					Description: "TikTok username (with or without @)",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "message",
					Description: "Custom notification message for this account ({username}, {description}, {url})",
					Required:    false,
				},
			},
		},
		{
			Name:        "removetiktok",
			Description: "Remove a TikTok account from the monitoring list",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "username",
					Description: "TikTok username",
					Required:    true,
				},
			},
		},
		{
			Name:        "listtiktoks",
			Description: "Show all monitored TikTok accounts",
		},
		{
			Name:        "nudgetwitch",
			Description: "Check and post current live Twitch streams",
		},
		{
			Name:        "nudgeyt",
			Description: "Check and post latest YouTube videos",
		},
		{
			Name:        "nudgetiktok",
			Description: "Check and post latest TikTok posts",
		},
		{
			Name:        "linkaccount",
			Description: "Link your Discord account to your Twitch username",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "username",
					Description: "Your Twitch username",
					Required:    true,
				},
			},
		},
		{
			Name:        "unlinkaccount",
			Description: "Remove your linked Twitch username",
		},
		{
			Name:        "listlinks",
			Description: "Show all linked Twitch accounts in this server",
		},
		{
			Name:                     "manuallink",
			Description:              "Link another member to a Twitch username",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "The member to link",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "username",
					Description: "Their Twitch username",
					Required:    true,
				},
			},
		},
		{
			Name:        "setrole",
			Description: "Set the role to assign when linked streamers go live",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "role",
					Description: "The role to assign to live streamers",
					Required:    true,
				},
			},
		},
		{
			Name:        "removerole",
			Description: "Remove the live streamer role configuration",
		},
		{
			Name:                     "customstatus",
			Description:              "Set a custom bot status (pauses rotation)",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "type",
					Description: "Status type",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Playing", Value: "playing"},
						{Name: "Streaming", Value: "streaming"},
						{Name: "Listening", Value: "listening"},
						{Name: "Watching", Value: "watching"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "text",
					Description: "Status text",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "url",
					Description: "URL (only for Streaming type)",
					Required:    false,
				},
			},
		},
		{
			Name:                     "clearstatus",
			Description:              "Clear the custom status and resume rotation",
			DefaultMemberPermissions: &adminOnly,
		},
		{
			Name:        "help",
			Description: "Show all available commands",
		},
	}
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	slog.Info("Registering slash commands")

	commandDefinitions := b.getCommandDefinitions()
	registeredCommands := make([]*discordgo.ApplicationCommand, 0, len(commandDefinitions))

	for _, cmd := range commandDefinitions {
		registered, err := b.session.ApplicationCommandCreate(
			b.session.State.User.ID,
			"", // Empty string = global command
			cmd,
		)
		if err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
		registeredCommands = append(registeredCommands, registered)
		slog.Debug("Registered command", "name", cmd.Name)
	}

	b.commands = registeredCommands
	slog.Info("Slash commands registered", "count", len(registeredCommands))
	return nil
}

// handleSetup handles the /setup command
func (b *Bot) handleSetup(s *discordgo.Session, i *discordgo.InteractionCreate) {
	channel := i.ApplicationCommandData().Options[0].ChannelValue(s)

	if err := b.store.SetChannel(i.GuildID, channel.ID); err != nil {
		slog.Error("Failed to set notification channel", "guild", i.GuildID, "error", err)
		respondWithMessage(s, i, "Failed to save configuration. Please try again.")
		return
	}

	respondWithMessage(s, i, fmt.Sprintf("Notifications will be sent to <#%s>", channel.ID))
}

// handleAddStreamer handles the /addstreamer command
func (b *Bot) handleAddStreamer(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	username := store.NormalizeUsername(opts["username"].StringValue())
	customMessage := ""
	if opt, ok := opts["message"]; ok {
		customMessage = opt.StringValue()
	}

	if err := b.store.AddStreamer(i.GuildID, username, customMessage); err != nil {
		if errors.Is(err, store.ErrAlreadyTracked) {
			respondWithMessage(s, i, fmt.Sprintf("**%s** is already being monitored!", username))
			return
		}
		slog.Error("Failed to add streamer", "guild", i.GuildID, "username", username, "error", err)
		respondWithMessage(s, i, "Failed to save configuration. Please try again.")
		return
	}

	slog.Info("Streamer added", "guild", i.GuildID, "username", username)
	respondWithMessage(s, i, fmt.Sprintf("Added **%s** to the monitoring list!", username))
}

// handleRemoveStreamer handles the /removestreamer command
func (b *Bot) handleRemoveStreamer(s *discordgo.Session, i *discordgo.InteractionCreate) {
	username := store.NormalizeUsername(i.ApplicationCommandData().Options[0].StringValue())

	if err := b.store.RemoveStreamer(i.GuildID, username); err != nil {
		if errors.Is(err, store.ErrNotTracked) {
			respondWithMessage(s, i, fmt.Sprintf("**%s** is not in the monitoring list!", username))
			return
		}
		slog.Error("Failed to remove streamer", "guild", i.GuildID, "username", username, "error", err)
		respondWithMessage(s, i, "Failed to save configuration. Please try again.")
		return
	}

	slog.Info("Streamer removed", "guild", i.GuildID, "username", username)
	respondWithMessage(s, i, fmt.Sprintf("Removed **%s** from the monitoring list!", username))
}

// handleListStreamers handles the /liststreamers command
func (b *Bot) handleListStreamers(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cfg, err := b.store.GetOrCreateGuildConfig(i.GuildID)
	if err != nil {
		slog.Error("Failed to load guild config", "guild", i.GuildID, "error", err)
		respondWithMessage(s, i, "Failed to load configuration.")
		return
	}

	if len(cfg.Twitch.Usernames) == 0 {
		respondWithMessage(s, i, "No streamers are currently being monitored.")
		return
	}

	var sb strings.Builder
	sb.WriteString("**Currently monitoring:**\n")
	for idx, username := range cfg.Twitch.Usernames {
		sb.WriteString(fmt.Sprintf("%d. %s", idx+1, username))
		if _, ok := cfg.Twitch.CustomMessages[username]; ok {
			sb.WriteString(" (custom message)")
		}
		sb.WriteString("\n")
	}
	respondWithMessage(s, i, sb.String())
}

// handleAddChannel handles the /addchannel command
func (b *Bot) handleAddChannel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	input := strings.TrimSpace(i.ApplicationCommandData().Options[0].StringValue())

	// Channel resolution may hit the API; defer to avoid the 3s timeout
	deferResponse(s, i)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, err := b.youtubeClient.ResolveChannelID(ctx, input)
	if err != nil {
		slog.Warn("Could not resolve YouTube channel", "guild", i.GuildID, "input", input, "error", err)
		b.editResponse(s, i, "Invalid YouTube channel. Please provide a channel URL (youtube.com/channel/... or youtube.com/@...), @handle, or channel ID (UC...).")
		return
	}

	if err := b.store.AddChannel(i.GuildID, channelID); err != nil {
		if errors.Is(err, store.ErrAlreadyTracked) {
			b.editResponse(s, i, "This channel is already being monitored!")
			return
		}
		slog.Error("Failed to add channel", "guild", i.GuildID, "channel", channelID, "error", err)
		b.editResponse(s, i, "Failed to save configuration. Please try again.")
		return
	}

	slog.Info("Channel added", "guild", i.GuildID, "channel", channelID)
	b.editResponse(s, i, fmt.Sprintf("Added YouTube channel to the monitoring list!\nChannel ID: %s", channelID))
}

// handleRemoveChannel handles the /removechannel command
func (b *Bot) handleRemoveChannel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	input := strings.TrimSpace(i.ApplicationCommandData().Options[0].StringValue())

	deferResponse(s, i)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, err := b.youtubeClient.ResolveChannelID(ctx, input)
	if err != nil {
		b.editResponse(s, i, "Invalid YouTube channel. Please provide a channel URL, @handle, or channel ID.")
		return
	}

	if err := b.store.RemoveChannel(i.GuildID, channelID); err != nil {
		if errors.Is(err, store.ErrNotTracked) {
			b.editResponse(s, i, "This channel is not in the monitoring list!")
			return
		}
		slog.Error("Failed to remove channel", "guild", i.GuildID, "channel", channelID, "error", err)
		b.editResponse(s, i, "Failed to save configuration. Please try again.")
		return
	}

	slog.Info("Channel removed", "guild", i.GuildID, "channel", channelID)
	b.editResponse(s, i, "Removed YouTube channel from the monitoring list!")
}

// handleListChannels handles the /listchannels command
func (b *Bot) handleListChannels(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cfg, err := b.store.GetOrCreateGuildConfig(i.GuildID)
	if err != nil {
		slog.Error("Failed to load guild config", "guild", i.GuildID, "error", err)
		respondWithMessage(s, i, "Failed to load configuration.")
		return
	}

	if len(cfg.YouTube.ChannelIDs) == 0 {
		respondWithMessage(s, i, "No YouTube channels are currently being monitored.")
		return
	}

	var sb strings.Builder
	sb.WriteString("**Currently monitoring YouTube channels:**\n")
	for idx, id := range cfg.YouTube.ChannelIDs {
		sb.WriteString(fmt.Sprintf("%d. %s\n", idx+1, id))
	}
	respondWithMessage(s, i, sb.String())
}

// handleAddTikTok handles the /addtiktok command
func (b *Bot) handleAddTikTok(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	username := store.NormalizeUsername(opts["username"].StringValue())
	customMessage := ""
	if opt, ok := opts["message"]; ok {
		customMessage = opt.StringValue()
	}

	// Validation fetches the profile page; defer to avoid the 3s timeout
	deferResponse(s, i)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := b.tiktokClient.Wait(ctx); err != nil {
		b.editResponse(s, i, "Failed to check the account. Please try again.")
		return
	}
	if !b.tiktokClient.ValidateUsername(ctx, username) {
		b.editResponse(s, i, fmt.Sprintf("Could not find TikTok user **@%s**. Please check the username and try again.", username))
		return
	}

	if err := b.store.AddTikTok(i.GuildID, username, customMessage); err != nil {
		if errors.Is(err, store.ErrAlreadyTracked) {
			b.editResponse(s, i, fmt.Sprintf("**@%s** is already being monitored!", username))
			return
		}
		slog.Error("Failed to add tiktok account", "guild", i.GuildID, "username", username, "error", err)
		b.editResponse(s, i, "Failed to save configuration. Please try again.")
		return
	}

	slog.Info("TikTok account added", "guild", i.GuildID, "username", username)
	b.editResponse(s, i, fmt.Sprintf("Added **@%s** to the monitoring list!", username))
}

// handleRemoveTikTok handles the /removetiktok command
func (b *Bot) handleRemoveTikTok(s *discordgo.Session, i *discordgo.InteractionCreate) {
	username := store.NormalizeUsername(i.ApplicationCommandData().Options[0].StringValue())

	if err := b.store.RemoveTikTok(i.GuildID, username); err != nil {
		if errors.Is(err, store.ErrNotTracked) {
			respondWithMessage(s, i, fmt.Sprintf("**@%s** is not in the monitoring list!", username))
			return
		}
		slog.Error("Failed to remove tiktok account", "guild", i.GuildID, "username", username, "error", err)
		respondWithMessage(s, i, "Failed to save configuration. Please try again.")
		return
	}

	slog.Info("TikTok account removed", "guild", i.GuildID, "username", username)
	respondWithMessage(s, i, fmt.Sprintf("Removed **@%s** from the monitoring list!", username))
}

// handleListTikToks handles the /listtiktoks command
func (b *Bot) handleListTikToks(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cfg, err := b.store.GetOrCreateGuildConfig(i.GuildID)
	if err != nil {
		slog.Error("Failed to load guild config", "guild", i.GuildID, "error", err)
		respondWithMessage(s, i, "Failed to load configuration.")
		return
	}

	if len(cfg.TikTok.Usernames) == 0 {
		respondWithMessage(s, i, "No TikTok accounts are currently being monitored.")
		return
	}

	var sb strings.Builder
	sb.WriteString("**Currently monitoring TikTok accounts:**\n")
	for idx, username := range cfg.TikTok.Usernames {
		sb.WriteString(fmt.Sprintf("%d. @%s", idx+1, username))
		if _, ok := cfg.TikTok.CustomMessages[username]; ok {
			sb.WriteString(" (custom message)")
		}
		sb.WriteString("\n")
	}
	respondWithMessage(s, i, sb.String())
}

// handleNudgeTwitch handles the /nudgetwitch command
func (b *Bot) handleNudgeTwitch(s *discordgo.Session, i *discordgo.InteractionCreate) {
	deferResponse(s, i)

	cfg, err := b.store.GetOrCreateGuildConfig(i.GuildID)
	if err != nil {
		slog.Error("Failed to load guild config", "guild", i.GuildID, "error", err)
		b.editResponse(s, i, "Failed to load configuration.")
		return
	}
	if cfg.ChannelID == "" {
		b.editResponse(s, i, "Please set up a notification channel first using `/setup`!")
		return
	}
	if len(cfg.Twitch.Usernames) == 0 {
		b.editResponse(s, i, "No Twitch streamers configured to check!")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	streams := b.twitchMonitor.CheckSpecificStreamers(ctx, cfg.Twitch.Usernames)
	if len(streams) == 0 {
		b.editResponse(s, i, "None of the monitored streamers are currently live.")
		return
	}

	posted := 0
	for _, stream := range streams {
		if _, _, err := b.dispatcher.NotifyStream(cfg, stream); err != nil {
			slog.Error("Failed to post nudged stream", "guild", i.GuildID, "username", stream.UserLogin, "error", err)
			continue
		}
		posted++
	}

	if posted == 0 {
		b.editResponse(s, i, "Error posting to the notification channel!")
		return
	}
	b.editResponse(s, i, fmt.Sprintf("Posted %d live stream(s) to <#%s>!", posted, cfg.ChannelID))
}

// handleNudgeYouTube handles the /nudgeyt command
func (b *Bot) handleNudgeYouTube(s *discordgo.Session, i *discordgo.InteractionCreate) {
	deferResponse(s, i)

	cfg, err := b.store.GetOrCreateGuildConfig(i.GuildID)
	if err != nil {
		slog.Error("Failed to load guild config", "guild", i.GuildID, "error", err)
		b.editResponse(s, i, "Failed to load configuration.")
		return
	}
	if cfg.ChannelID == "" {
		b.editResponse(s, i, "Please set up a notification channel first using `/setup`!")
		return
	}
	if len(cfg.YouTube.ChannelIDs) == 0 {
		b.editResponse(s, i, "No YouTube channels configured to check!")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	videos := b.youtubeMonitor.CheckSpecificChannels(ctx, cfg.YouTube.ChannelIDs)
	if len(videos) == 0 {
		b.editResponse(s, i, "No recent videos found for monitored channels.")
		return
	}

	posted := 0
	for _, video := range videos {
		if err := b.dispatcher.NotifyVideo(cfg, video); err != nil {
			slog.Error("Failed to post nudged video", "guild", i.GuildID, "channel", video.ChannelID, "error", err)
			continue
		}
		posted++
	}

	if posted == 0 {
		b.editResponse(s, i, "Error posting to the notification channel!")
		return
	}
	b.editResponse(s, i, fmt.Sprintf("Posted %d video(s) to <#%s>!", posted, cfg.ChannelID))
}

// handleNudgeTikTok handles the /nudgetiktok command
func (b *Bot) handleNudgeTikTok(s *discordgo.Session, i *discordgo.InteractionCreate) {
	deferResponse(s, i)

	cfg, err := b.store.GetOrCreateGuildConfig(i.GuildID)
	if err != nil {
		slog.Error("Failed to load guild config", "guild", i.GuildID, "error", err)
		b.editResponse(s, i, "Failed to load configuration.")
		return
	}
	if cfg.ChannelID == "" {
		b.editResponse(s, i, "Please set up a notification channel first using `/setup`!")
		return
	}
	if len(cfg.TikTok.Usernames) == 0 {
		b.editResponse(s, i, "No TikTok accounts configured to check!")
		return
	}

	// Scraping is slow with the per-request throttle; allow plenty of time
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	posts := b.tiktokMonitor.CheckSpecificAccounts(ctx, cfg.TikTok.Usernames)
	if len(posts) == 0 {
		b.editResponse(s, i, "No posts found for monitored accounts.")
		return
	}

	posted := 0
	for _, post := range posts {
		if err := b.dispatcher.NotifyPost(cfg, post); err != nil {
			slog.Error("Failed to post nudged tiktok", "guild", i.GuildID, "username", post.Author.UniqueID, "error", err)
			continue
		}
		posted++
	}

	if posted == 0 {
		b.editResponse(s, i, "Error posting to the notification channel!")
		return
	}
	b.editResponse(s, i, fmt.Sprintf("Posted %d post(s) to <#%s>!", posted, cfg.ChannelID))
}

// handleLinkAccount handles the /linkaccount command
func (b *Bot) handleLinkAccount(s *discordgo.Session, i *discordgo.InteractionCreate) {
	username := store.NormalizeUsername(i.ApplicationCommandData().Options[0].StringValue())
	userID := i.Member.User.ID

	cfg, err := b.store.GetOrCreateGuildConfig(i.GuildID)
	if err != nil {
		slog.Error("Failed to load guild config", "guild", i.GuildID, "error", err)
		respondEphemeral(s, i, "Failed to save the link. Please try again.")
		return
	}
	previous := cfg.Twitch.LinkedAccounts[userID]

	if err := b.store.LinkAccount(i.GuildID, userID, username); err != nil {
		slog.Error("Failed to link account", "guild", i.GuildID, "user", userID, "error", err)
		respondEphemeral(s, i, "Failed to save the link. Please try again.")
		return
	}

	slog.Info("Account linked", "guild", i.GuildID, "user", userID, "twitch", username)
	if previous != "" {
		respondEphemeral(s, i, fmt.Sprintf("Updated your linked Twitch account from **%s** to **%s**. The live role will be assigned automatically when you stream!", previous, username))
		return
	}
	respondEphemeral(s, i, fmt.Sprintf("Linked your account to Twitch username **%s**. You'll receive the live role automatically when you stream!", username))
}

// handleUnlinkAccount handles the /unlinkaccount command
func (b *Bot) handleUnlinkAccount(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := i.Member.User.ID

	removed, err := b.store.UnlinkAccount(i.GuildID, userID)
	if err != nil {
		slog.Error("Failed to unlink account", "guild", i.GuildID, "user", userID, "error", err)
		respondEphemeral(s, i, "Failed to remove the link. Please try again.")
		return
	}
	if !removed {
		respondEphemeral(s, i, "You don't have a linked Twitch account.")
		return
	}

	slog.Info("Account unlinked", "guild", i.GuildID, "user", userID)
	respondEphemeral(s, i, "Removed your linked Twitch account.")
}

// handleListLinks handles the /listlinks command
func (b *Bot) handleListLinks(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cfg, err := b.store.GetOrCreateGuildConfig(i.GuildID)
	if err != nil {
		slog.Error("Failed to load guild config", "guild", i.GuildID, "error", err)
		respondWithMessage(s, i, "Failed to load configuration.")
		return
	}

	if len(cfg.Twitch.LinkedAccounts) == 0 {
		respondWithMessage(s, i, "No accounts are linked in this server.")
		return
	}

	var sb strings.Builder
	sb.WriteString("**Linked accounts:**\n")
	for userID, username := range cfg.Twitch.LinkedAccounts {
		sb.WriteString(fmt.Sprintf("<@%s> → %s\n", userID, username))
	}
	respondWithMessage(s, i, sb.String())
}

// handleManualLink handles the /manuallink command
func (b *Bot) handleManualLink(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	member := opts["member"].UserValue(s)
	username := store.NormalizeUsername(opts["username"].StringValue())

	if err := b.store.LinkAccount(i.GuildID, member.ID, username); err != nil {
		slog.Error("Failed to link account", "guild", i.GuildID, "user", member.ID, "error", err)
		respondWithMessage(s, i, "Failed to save the link. Please try again.")
		return
	}

	slog.Info("Account linked manually", "guild", i.GuildID, "user", member.ID, "twitch", username, "by", i.Member.User.ID)
	respondWithMessage(s, i, fmt.Sprintf("Linked <@%s> to Twitch username **%s**.", member.ID, username))
}

// handleSetRole handles the /setrole command
func (b *Bot) handleSetRole(s *discordgo.Session, i *discordgo.InteractionCreate) {
	role := i.ApplicationCommandData().Options[0].RoleValue(s, i.GuildID)

	if role.Managed {
		respondWithMessage(s, i, "This role is managed by an integration and cannot be assigned manually!")
		return
	}

	if err := b.store.SetLiveRole(i.GuildID, role.ID); err != nil {
		slog.Error("Failed to set live role", "guild", i.GuildID, "role", role.ID, "error", err)
		respondWithMessage(s, i, "Failed to save configuration. Please try again.")
		return
	}

	slog.Info("Live role set", "guild", i.GuildID, "role", role.ID)
	respondWithMessage(s, i, fmt.Sprintf("Live streamer role set to <@&%s>!\nLinked streamers will receive this role when they go live and lose it when they go offline.", role.ID))
}

// handleRemoveRole handles the /removerole command
func (b *Bot) handleRemoveRole(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cfg, err := b.store.GetOrCreateGuildConfig(i.GuildID)
	if err != nil {
		slog.Error("Failed to load guild config", "guild", i.GuildID, "error", err)
		respondWithMessage(s, i, "Failed to load configuration.")
		return
	}
	if cfg.LiveRoleID == "" {
		respondWithMessage(s, i, "No live role is currently configured!")
		return
	}

	if err := b.store.SetLiveRole(i.GuildID, ""); err != nil {
		slog.Error("Failed to clear live role", "guild", i.GuildID, "error", err)
		respondWithMessage(s, i, "Failed to save configuration. Please try again.")
		return
	}

	slog.Info("Live role removed", "guild", i.GuildID)
	respondWithMessage(s, i, "Live streamer role configuration removed!\nNote: this does not remove the role from members who currently have it.")
}

// handleCustomStatus handles the /customstatus command
func (b *Bot) handleCustomStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	statusType := opts["type"].StringValue()
	text := opts["text"].StringValue()
	url := ""
	if opt, ok := opts["url"]; ok {
		url = opt.StringValue()
	}

	if statusType == "streaming" && url == "" {
		respondEphemeral(s, i, "URL is required for the Streaming status type!")
		return
	}

	if err := b.status.setCustom(statusType, text, url); err != nil {
		slog.Error("Failed to set custom status", "error", err)
		respondEphemeral(s, i, "Failed to set custom status.")
		return
	}

	respondEphemeral(s, i, fmt.Sprintf("Custom status set to **%s** %q. Status rotation is now paused; use `/clearstatus` to resume.", statusType, text))
}

// handleClearStatus handles the /clearstatus command
func (b *Bot) handleClearStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.status.clear()
	respondEphemeral(s, i, "Custom status cleared. Status rotation resumed.")
}

// handleHelp handles the /help command
func (b *Bot) handleHelp(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respondWithMessage(s, i, helpMessage)
}

const helpMessage = "**Entertainment Bot - Help Menu**\n\n" +
	"**Setup:**\n" +
	"`/setup <channel>` - Set the notification channel for this server\n" +
	"`/setrole <role>` / `/removerole` - Configure the live streamer role\n\n" +
	"**Twitch:**\n" +
	"`/addstreamer <username> [message]` - Add a Twitch streamer to monitor\n" +
	"`/removestreamer <username>` - Remove a Twitch streamer\n" +
	"`/liststreamers` - Show all monitored streamers\n" +
	"`/nudgetwitch` - Check for live streams and post to the notification channel\n" +
	"`/linkaccount <username>` / `/unlinkaccount` - Link your Twitch account for the live role\n" +
	"`/listlinks` - Show all linked accounts\n\n" +
	"**YouTube:**\n" +
	"`/addchannel <channel>` - Add a YouTube channel (URL, @handle, or UC... ID)\n" +
	"`/removechannel <channel>` - Remove a YouTube channel\n" +
	"`/listchannels` - Show all monitored channels\n" +
	"`/nudgeyt` - Check for latest videos and post to the notification channel\n\n" +
	"**TikTok:**\n" +
	"`/addtiktok <username> [message]` - Add a TikTok account to monitor\n" +
	"`/removetiktok <username>` - Remove a TikTok account\n" +
	"`/listtiktoks` - Show all monitored accounts\n" +
	"`/nudgetiktok` - Check for latest posts and post to the notification channel\n\n" +
	"Custom messages support `{username}`, `{title}`, `{game}`, `{channel}`, `{description}` and `{url}` placeholders.\n" +
	"Each server has its own separate configuration!"

// Helper functions

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func respondWithMessage(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

func (b *Bot) editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
}
