package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/config"
	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/monitor"
	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/notify"
	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/store"
	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/tiktok"
	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/twitch"
	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/youtube"
)

// Bot represents the Discord bot instance
type Bot struct {
	config  *config.Config
	session *discordgo.Session
	store   *store.Store

	twitchMonitor  *monitor.TwitchMonitor
	youtubeMonitor *monitor.YouTubeMonitor
	tiktokMonitor  *monitor.TikTokMonitor

	youtubeClient *youtube.Client
	tiktokClient  *tiktok.Client

	dispatcher *notify.Dispatcher
	status     *statusRotator
	commands   []*discordgo.ApplicationCommand
}

// New creates a new Bot instance
func New(cfg *config.Config) (*Bot, error) {
	// Create Discord session
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Presences intent is required for the live-role reconciler
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildPresences

	// Initialize storage
	st, err := store.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Platform clients
	tokens := twitch.NewTokenSource(cfg.TwitchClientID, cfg.TwitchClientSecret, "")
	twitchClient := twitch.NewClient(cfg.TwitchClientID, tokens, "")

	youtubeClient, err := youtube.NewClient(context.Background(), cfg.YouTubeAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize youtube client: %w", err)
	}

	tiktokClient := tiktok.NewClient("")

	dispatcher := notify.NewDispatcher(&sessionMessenger{session: session})
	roles := &sessionRoles{session: session}

	b := &Bot{
		config:        cfg,
		session:       session,
		store:         st,
		youtubeClient: youtubeClient,
		tiktokClient:  tiktokClient,
		dispatcher:    dispatcher,
		twitchMonitor: monitor.NewTwitchMonitor(
			st, twitchClient, dispatcher, roles,
			time.Duration(cfg.TwitchPollSeconds)*time.Second,
		),
		youtubeMonitor: monitor.NewYouTubeMonitor(
			st, youtubeClient, dispatcher,
			time.Duration(cfg.YouTubePollSeconds)*time.Second,
		),
		tiktokMonitor: monitor.NewTikTokMonitor(
			st, tiktokClient, dispatcher,
			time.Duration(cfg.TikTokPollSeconds)*time.Second,
		),
	}
	b.status = newStatusRotator(session)

	// Register event handlers
	b.registerHandlers()

	return b, nil
}

// Start opens the Discord connection and starts the monitors
func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	slog.Info("Connected to Discord", "user", b.session.State.User.Username)

	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	go b.twitchMonitor.Start(ctx)
	go b.youtubeMonitor.Start(ctx)
	go b.tiktokMonitor.Start(ctx)
	go b.status.run(ctx)

	return nil
}

// Stop gracefully shuts down the bot
func (b *Bot) Stop() error {
	if b.twitchMonitor != nil {
		b.twitchMonitor.Stop()
	}
	if b.youtubeMonitor != nil {
		b.youtubeMonitor.Stop()
	}
	if b.tiktokMonitor != nil {
		b.tiktokMonitor.Stop()
	}

	if b.store != nil {
		b.store.Close()
	}

	if b.session != nil {
		return b.session.Close()
	}
	return nil
}

// registerHandlers sets up Discord event handlers
func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.handleInteraction)
	b.session.AddHandler(b.handlePresenceUpdate)
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("Bot is ready", "guilds", len(r.Guilds))
	})
	b.session.AddHandler(func(s *discordgo.Session, g *discordgo.GuildDelete) {
		// Kicked or guild deleted; drop its configuration
		if g.Unavailable {
			return
		}
		removed, err := b.store.DeleteGuildConfig(g.ID)
		if err != nil {
			slog.Error("Failed to delete guild config", "guild", g.ID, "error", err)
			return
		}
		if removed {
			slog.Info("Removed configuration for departed guild", "guild", g.ID)
		}
	})
}

// handleInteraction processes slash command interactions
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	slog.Debug("Received command", "command", data.Name, "guild", i.GuildID)

	switch data.Name {
	case "setup":
		b.handleSetup(s, i)
	case "addstreamer":
		b.handleAddStreamer(s, i)
	case "removestreamer":
		b.handleRemoveStreamer(s, i)
	case "liststreamers":
		b.handleListStreamers(s, i)
	case "addchannel":
		b.handleAddChannel(s, i)
	case "removechannel":
		b.handleRemoveChannel(s, i)
	case "listchannels":
		b.handleListChannels(s, i)
	case "addtiktok":
		b.handleAddTikTok(s, i)
	case "removetiktok":
		b.handleRemoveTikTok(s, i)
	case "listtiktoks":
		b.handleListTikToks(s, i)
	case "nudgetwitch":
		b.handleNudgeTwitch(s, i)
	case "nudgeyt":
		b.handleNudgeYouTube(s, i)
	case "nudgetiktok":
		b.handleNudgeTikTok(s, i)
	case "linkaccount":
		b.handleLinkAccount(s, i)
	case "unlinkaccount":
		b.handleUnlinkAccount(s, i)
	case "listlinks":
		b.handleListLinks(s, i)
	case "manuallink":
		b.handleManualLink(s, i)
	case "setrole":
		b.handleSetRole(s, i)
	case "removerole":
		b.handleRemoveRole(s, i)
	case "customstatus":
		b.handleCustomStatus(s, i)
	case "clearstatus":
		b.handleClearStatus(s, i)
	case "help":
		b.handleHelp(s, i)
	default:
		slog.Warn("Unknown command", "command", data.Name)
	}
}

// sessionMessenger adapts the Discord session to the notify.Messenger sink
type sessionMessenger struct {
	session *discordgo.Session
}

func (m *sessionMessenger) SendToChannel(channelID string, message *discordgo.MessageSend) (string, error) {
	sent, err := m.session.ChannelMessageSendComplex(channelID, message)
	if err != nil {
		return "", err
	}
	return sent.ID, nil
}

func (m *sessionMessenger) EditMessage(channelID, messageID string, message *discordgo.MessageEdit) error {
	_, err := m.session.ChannelMessageEditComplex(message)
	return err
}

// sessionRoles adapts the Discord session to the monitor.RoleManager sink.
// Discord treats re-adding a held role and removing an absent one as no-ops.
type sessionRoles struct {
	session *discordgo.Session
}

func (r *sessionRoles) AddRole(guildID, userID, roleID string) error {
	return r.session.GuildMemberRoleAdd(guildID, userID, roleID)
}

func (r *sessionRoles) RemoveRole(guildID, userID, roleID string) error {
	return r.session.GuildMemberRoleRemove(guildID, userID, roleID)
}
