package notify

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/store"
	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/tiktok"
	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/twitch"
	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/youtube"
)

type recordingMessenger struct {
	sent    []*discordgo.MessageSend
	edited  []*discordgo.MessageEdit
	sendErr error
}

func (m *recordingMessenger) SendToChannel(channelID string, message *discordgo.MessageSend) (string, error) {
	if m.sendErr != nil {
		return "", m.sendErr
	}
	m.sent = append(m.sent, message)
	return "msg-1", nil
}

func (m *recordingMessenger) EditMessage(channelID, messageID string, message *discordgo.MessageEdit) error {
	m.edited = append(m.edited, message)
	return nil
}

func testGuild() *store.GuildConfig {
	return &store.GuildConfig{
		GuildID:   "guild-1",
		ChannelID: "channel-1",
		Twitch: store.TwitchConfig{
			Message:        store.DefaultTwitchMessage,
			CustomMessages: map[string]string{},
		},
		YouTube: store.YouTubeConfig{Message: store.DefaultYouTubeMessage},
		TikTok: store.TikTokConfig{
			Message:        store.DefaultTikTokMessage,
			CustomMessages: map[string]string{},
		},
	}
}

func TestRender(t *testing.T) {
	out := Render("{username} plays {game}", map[string]string{
		"username": "ninja",
		"game":     "Fortnite",
	})
	assert.Equal(t, "ninja plays Fortnite", out)
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	out := Render("{username} {mystery}", map[string]string{"username": "ninja"})
	assert.Equal(t, "ninja {mystery}", out)
}

func TestNotifyStream(t *testing.T) {
	messenger := &recordingMessenger{}
	d := NewDispatcher(messenger)

	stream := &twitch.Stream{
		UserLogin:    "ninja",
		UserName:     "Ninja",
		Title:        "Big Stream",
		GameName:     "Fortnite",
		ViewerCount:  1234,
		ThumbnailURL: "https://example.com/thumb-{width}x{height}.jpg",
	}

	channelID, messageID, err := d.NotifyStream(testGuild(), stream)
	require.NoError(t, err)
	assert.Equal(t, "channel-1", channelID)
	assert.Equal(t, "msg-1", messageID)

	require.Len(t, messenger.sent, 1)
	msg := messenger.sent[0]
	assert.Contains(t, msg.Content, "Ninja is now live on Twitch!")
	assert.Contains(t, msg.Content, "Big Stream")
	assert.Contains(t, msg.Content, "Fortnite")

	require.Len(t, msg.Embeds, 1)
	assert.Equal(t, "https://example.com/thumb-440x248.jpg", msg.Embeds[0].Image.URL)
	require.Len(t, msg.Components, 1)
}

func TestNotifyStreamCustomMessage(t *testing.T) {
	messenger := &recordingMessenger{}
	d := NewDispatcher(messenger)

	cfg := testGuild()
	cfg.Twitch.CustomMessages["ninja"] = "Wake up! {username} is live with {game}"

	_, _, err := d.NotifyStream(cfg, &twitch.Stream{UserLogin: "ninja", UserName: "Ninja", GameName: "Fortnite"})
	require.NoError(t, err)
	assert.Equal(t, "Wake up! Ninja is live with Fortnite", messenger.sent[0].Content)
}

func TestNotifyStreamFallbacks(t *testing.T) {
	messenger := &recordingMessenger{}
	d := NewDispatcher(messenger)

	// Title and game can be empty on a fresh broadcast
	_, _, err := d.NotifyStream(testGuild(), &twitch.Stream{UserLogin: "ninja"})
	require.NoError(t, err)
	assert.Contains(t, messenger.sent[0].Content, "ninja is now live")
	assert.Contains(t, messenger.sent[0].Content, "Unknown")
}

func TestNotifyStreamNoChannelConfigured(t *testing.T) {
	d := NewDispatcher(&recordingMessenger{})
	cfg := testGuild()
	cfg.ChannelID = ""

	_, _, err := d.NotifyStream(cfg, &twitch.Stream{UserLogin: "ninja"})
	assert.Error(t, err)
}

func TestUpdateStream(t *testing.T) {
	messenger := &recordingMessenger{}
	d := NewDispatcher(messenger)

	err := d.UpdateStream("channel-1", "msg-1", testGuild(), &twitch.Stream{
		UserLogin: "ninja",
		UserName:  "Ninja",
		GameName:  "Valorant",
	})
	require.NoError(t, err)

	require.Len(t, messenger.edited, 1)
	edit := messenger.edited[0]
	assert.Equal(t, "channel-1", edit.Channel)
	assert.Equal(t, "msg-1", edit.ID)
	assert.Contains(t, *edit.Content, "Valorant")
}

func TestNotifyVideo(t *testing.T) {
	messenger := &recordingMessenger{}
	d := NewDispatcher(messenger)

	video := &youtube.Video{
		ID:           "abc123",
		Title:        "My Video",
		ChannelTitle: "My Channel",
	}
	err := d.NotifyVideo(testGuild(), video)
	require.NoError(t, err)

	content := messenger.sent[0].Content
	assert.Contains(t, content, "My Channel just uploaded a new video!")
	assert.Contains(t, content, "My Video")
	assert.Contains(t, content, "https://www.youtube.com/watch?v=abc123")
}

func TestNotifyPost(t *testing.T) {
	messenger := &recordingMessenger{}
	d := NewDispatcher(messenger)

	p := &tiktok.Post{
		ID:          "7001",
		Description: "dance video",
		Author:      tiktok.Author{UniqueID: "creator", Nickname: "Creator"},
	}
	err := d.NotifyPost(testGuild(), p)
	require.NoError(t, err)

	content := messenger.sent[0].Content
	assert.Contains(t, content, "Creator just posted on TikTok!")
	assert.Contains(t, content, "dance video")
	assert.Contains(t, content, "https://www.tiktok.com/@creator/video/7001")
}

func TestNotifyPostCustomMessage(t *testing.T) {
	messenger := &recordingMessenger{}
	d := NewDispatcher(messenger)

	cfg := testGuild()
	cfg.TikTok.CustomMessages["creator"] = "New from {username}: {description}"

	p := &tiktok.Post{
		ID:     "7001",
		Author: tiktok.Author{UniqueID: "creator"},
	}
	err := d.NotifyPost(cfg, p)
	require.NoError(t, err)
	assert.Contains(t, messenger.sent[0].Content, "New from creator: No description")
}

func TestNotifySendFailure(t *testing.T) {
	messenger := &recordingMessenger{sendErr: errors.New("missing permissions")}
	d := NewDispatcher(messenger)

	_, _, err := d.NotifyStream(testGuild(), &twitch.Stream{UserLogin: "ninja"})
	assert.Error(t, err)

	err = d.NotifyVideo(testGuild(), &youtube.Video{ID: "abc"})
	assert.Error(t, err)
}
