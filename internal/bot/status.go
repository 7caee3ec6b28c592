package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// rotationInterval is how often the rotating status advances
const rotationInterval = 30 * time.Second

// rotatingStatuses cycle while no custom status is set
var rotatingStatuses = []struct {
	activityType discordgo.ActivityType
	text         string
}{
	{discordgo.ActivityTypeWatching, "for live streams"},
	{discordgo.ActivityTypeWatching, "for new videos"},
	{discordgo.ActivityTypeListening, "/help"},
	{discordgo.ActivityTypeGame, "with notifications"},
}

// statusRotator cycles the bot's Discord status. A custom status set from
// the customstatus command pauses the rotation until cleared.
type statusRotator struct {
	session *discordgo.Session

	mu     sync.Mutex
	custom *discordgo.Activity
	index  int
}

func newStatusRotator(session *discordgo.Session) *statusRotator {
	return &statusRotator{session: session}
}

// run advances the rotation until the context is cancelled
func (r *statusRotator) run(ctx context.Context) {
	r.advance()

	ticker := time.NewTicker(rotationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.advance()
		}
	}
}

func (r *statusRotator) advance() {
	r.mu.Lock()
	if r.custom != nil {
		r.mu.Unlock()
		return
	}
	status := rotatingStatuses[r.index%len(rotatingStatuses)]
	r.index++
	r.mu.Unlock()

	if err := r.apply(status.activityType, status.text, ""); err != nil {
		slog.Debug("Failed to update status", "error", err)
	}
}

// setCustom pins a custom status and pauses the rotation
func (r *statusRotator) setCustom(statusType, text, url string) error {
	activityType := parseActivityType(statusType)

	r.mu.Lock()
	r.custom = &discordgo.Activity{
		Name: text,
		Type: activityType,
		URL:  url,
	}
	r.mu.Unlock()

	return r.apply(activityType, text, url)
}

// clear removes the custom status and resumes the rotation
func (r *statusRotator) clear() {
	r.mu.Lock()
	r.custom = nil
	r.mu.Unlock()

	r.advance()
}

func (r *statusRotator) apply(activityType discordgo.ActivityType, text, url string) error {
	return r.session.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{
			{
				Name: text,
				Type: activityType,
				URL:  url,
			},
		},
		Status: string(discordgo.StatusOnline),
	})
}

func parseActivityType(statusType string) discordgo.ActivityType {
	switch statusType {
	case "streaming":
		return discordgo.ActivityTypeStreaming
	case "listening":
		return discordgo.ActivityTypeListening
	case "watching":
		return discordgo.ActivityTypeWatching
	default:
		return discordgo.ActivityTypeGame
	}
}
