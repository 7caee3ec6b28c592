package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestIsStreamingOnTwitch(t *testing.T) {
	tests := []struct {
		name       string
		activities []*discordgo.Activity
		want       bool
	}{
		{
			name: "streaming on twitch",
			activities: []*discordgo.Activity{
				{Type: discordgo.ActivityTypeStreaming, URL: "https://www.twitch.tv/ninja"},
			},
			want: true,
		},
		{
			name: "streaming elsewhere",
			activities: []*discordgo.Activity{
				{Type: discordgo.ActivityTypeStreaming, URL: "https://youtube.com/live/abc"},
			},
			want: false,
		},
		{
			name: "playing a game",
			activities: []*discordgo.Activity{
				{Type: discordgo.ActivityTypeGame, Name: "Fortnite"},
			},
			want: false,
		},
		{
			name: "streaming among other activities",
			activities: []*discordgo.Activity{
				{Type: discordgo.ActivityTypeGame, Name: "Fortnite"},
				{Type: discordgo.ActivityTypeStreaming, URL: "https://Twitch.TV/ninja"},
			},
			want: true,
		},
		{
			name:       "no activities",
			activities: nil,
			want:       false,
		},
		{
			name:       "nil activity entry",
			activities: []*discordgo.Activity{nil},
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isStreamingOnTwitch(tt.activities))
		})
	}
}

func TestParseActivityType(t *testing.T) {
	assert.Equal(t, discordgo.ActivityTypeStreaming, parseActivityType("streaming"))
	assert.Equal(t, discordgo.ActivityTypeListening, parseActivityType("listening"))
	assert.Equal(t, discordgo.ActivityTypeWatching, parseActivityType("watching"))
	assert.Equal(t, discordgo.ActivityTypeGame, parseActivityType("playing"))
	assert.Equal(t, discordgo.ActivityTypeGame, parseActivityType("unknown"))
}
