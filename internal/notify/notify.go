// Package notify renders notification templates and delivers them to the
// guild's configured Discord channel.
package notify

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/store"
	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/tiktok"
	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/twitch"
	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/youtube"
)

// Messenger is the messaging sink the dispatcher delivers through. The
// Discord session satisfies it via a thin adapter.
type Messenger interface {
	SendToChannel(channelID string, message *discordgo.MessageSend) (messageID string, err error)
	EditMessage(channelID, messageID string, message *discordgo.MessageEdit) error
}

// Dispatcher formats and sends platform notifications
type Dispatcher struct {
	messenger Messenger
}

// NewDispatcher creates a dispatcher delivering through the given sink
func NewDispatcher(messenger Messenger) *Dispatcher {
	return &Dispatcher{messenger: messenger}
}

// NotifyStream sends a live notification for a Twitch stream and returns the
// channel and message IDs so the monitor can edit the message later.
func (d *Dispatcher) NotifyStream(cfg *store.GuildConfig, stream *twitch.Stream) (string, string, error) {
	if cfg.ChannelID == "" {
		return "", "", fmt.Errorf("guild %s has no notification channel", cfg.GuildID)
	}

	messageID, err := d.messenger.SendToChannel(cfg.ChannelID, &discordgo.MessageSend{
		Content:    renderStream(cfg, stream),
		Embeds:     []*discordgo.MessageEmbed{streamEmbed(stream)},
		Components: streamComponents(stream),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to send stream notification: %w", err)
	}
	return cfg.ChannelID, messageID, nil
}

// UpdateStream re-renders a previously sent live notification in place,
// used when the stream switches category.
func (d *Dispatcher) UpdateStream(channelID, messageID string, cfg *store.GuildConfig, stream *twitch.Stream) error {
	content := renderStream(cfg, stream)
	return d.messenger.EditMessage(channelID, messageID, &discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Content:    &content,
		Embeds:     &[]*discordgo.MessageEmbed{streamEmbed(stream)},
		Components: &[]discordgo.MessageComponent{streamComponents(stream)[0]},
	})
}

// NotifyVideo sends an upload notification for a YouTube video.
func (d *Dispatcher) NotifyVideo(cfg *store.GuildConfig, video *youtube.Video) error {
	if cfg.ChannelID == "" {
		return fmt.Errorf("guild %s has no notification channel", cfg.GuildID)
	}
	text := Render(cfg.YouTube.Message, map[string]string{
		"channel":     fallback(video.ChannelTitle, "Unknown"),
		"title":       fallback(video.Title, "Unknown"),
		"description": fallback(video.Description, "No description"),
		"url":         video.URL(),
	})
	_, err := d.messenger.SendToChannel(cfg.ChannelID, &discordgo.MessageSend{
		Content: text + "\n" + video.URL(),
	})
	if err != nil {
		return fmt.Errorf("failed to send video notification: %w", err)
	}
	return nil
}

// NotifyPost sends a new-post notification for a TikTok account.
func (d *Dispatcher) NotifyPost(cfg *store.GuildConfig, post *tiktok.Post) error {
	if cfg.ChannelID == "" {
		return fmt.Errorf("guild %s has no notification channel", cfg.GuildID)
	}
	template := cfg.TikTok.CustomMessage(post.Author.UniqueID)
	text := Render(template, map[string]string{
		"username":    fallback(post.DisplayName(), "Unknown"),
		"description": fallback(post.Description, "No description"),
		"url":         post.URL(),
	})
	_, err := d.messenger.SendToChannel(cfg.ChannelID, &discordgo.MessageSend{
		Content: text + "\n" + post.URL(),
	})
	if err != nil {
		return fmt.Errorf("failed to send post notification: %w", err)
	}
	return nil
}

// Render substitutes {placeholder} values into a template. Unknown
// placeholders in the template are left untouched; missing values must be
// supplied by the caller with their literal fallbacks already applied.
func Render(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func renderStream(cfg *store.GuildConfig, stream *twitch.Stream) string {
	template := cfg.Twitch.CustomMessage(stream.UserLogin)
	return Render(template, map[string]string{
		"username": fallback(stream.UserName, stream.UserLogin),
		"title":    fallback(stream.Title, "Unknown"),
		"game":     fallback(stream.GameName, "Unknown"),
		"url":      stream.URL(),
	})
}

func streamEmbed(stream *twitch.Stream) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fallback(stream.Title, "Live on Twitch"),
		URL:   stream.URL(),
		Color: 0x9146FF,
		Author: &discordgo.MessageEmbedAuthor{
			Name: fallback(stream.UserName, stream.UserLogin),
		},
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Game",
				Value:  fallback(stream.GameName, "Unknown"),
				Inline: true,
			},
			{
				Name:   "Viewers",
				Value:  fmt.Sprintf("%d", stream.ViewerCount),
				Inline: true,
			},
		},
	}
	if stream.ThumbnailURL != "" {
		url := strings.ReplaceAll(stream.ThumbnailURL, "{width}x{height}", "440x248")
		embed.Image = &discordgo.MessageEmbedImage{URL: url}
	}
	return embed
}

func streamComponents(stream *twitch.Stream) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label: "Watch Stream",
					Style: discordgo.LinkButton,
					URL:   stream.URL(),
				},
			},
		},
	}
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
