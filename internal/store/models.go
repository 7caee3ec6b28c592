package store

// Default notification templates applied when a guild is first seen.
const (
	DefaultTwitchMessage  = "🔴 {username} is now live on Twitch!\n**{title}**\nPlaying: {game}"
	DefaultYouTubeMessage = "📺 {channel} just uploaded a new video!\n**{title}**"
	DefaultTikTokMessage  = "🎵 {username} just posted on TikTok!\n**{description}**"
)

// GuildConfig is the full per-guild configuration as the monitors consume it.
// ChannelID and LiveRoleID are empty until configured via /setup and /setrole.
type GuildConfig struct {
	GuildID    string
	ChannelID  string
	LiveRoleID string
	Twitch     TwitchConfig
	YouTube    YouTubeConfig
	TikTok     TikTokConfig
}

// TwitchConfig holds the monitored streamers for one guild. Usernames are
// stored lowercase and contain no duplicates.
type TwitchConfig struct {
	Usernames      []string
	Message        string
	CustomMessages map[string]string // username -> template override
	LinkedAccounts map[string]string // Discord user ID -> Twitch username
}

// YouTubeConfig holds the monitored channel IDs (UC... form) for one guild.
type YouTubeConfig struct {
	ChannelIDs []string
	Message    string
}

// TikTokConfig holds the monitored TikTok accounts for one guild.
type TikTokConfig struct {
	Usernames      []string
	Message        string
	CustomMessages map[string]string
}

// CustomMessage returns the per-streamer override if one is set, else the
// guild's default Twitch template.
func (c *TwitchConfig) CustomMessage(username string) string {
	if m, ok := c.CustomMessages[username]; ok && m != "" {
		return m
	}
	return c.Message
}

// CustomMessage returns the per-account override if one is set, else the
// guild's default TikTok template.
func (c *TikTokConfig) CustomMessage(username string) string {
	if m, ok := c.CustomMessages[username]; ok && m != "" {
		return m
	}
	return c.Message
}

// LinkedMember returns the Discord user ID linked to the given Twitch
// username, or "" when no member has linked it.
func (c *TwitchConfig) LinkedMember(twitchUsername string) string {
	for userID, login := range c.LinkedAccounts {
		if login == twitchUsername {
			return userID
		}
	}
	return ""
}
