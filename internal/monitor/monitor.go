// Package monitor owns the polling loops and the per-guild reconciliation
// state for all three platforms. Runtime state lives only in memory and is
// rebuilt from scratch after a restart; the first observation of any entity
// seeds the cache without notifying.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/store"
	"github.com/SgtEpsilon/Entertainment-discord-Bot/internal/telemetry"
)

// ConfigSource supplies the guild configurations a monitor walks on each
// tick. The store satisfies it.
type ConfigSource interface {
	GuildConfigs() ([]*store.GuildConfig, error)
}

// RoleManager toggles the live role on guild members. Both operations are
// idempotent at the Discord API level: adding a held role or removing an
// absent one succeeds without effect.
type RoleManager interface {
	AddRole(guildID, userID, roleID string) error
	RemoveRole(guildID, userID, roleID string) error
}

// scheduler runs a monitor's tick on a fixed interval with an immediate
// first run. A tick that overruns its interval causes the next one to be
// skipped rather than overlapped, so runtime state is only ever mutated by
// one tick at a time.
type scheduler struct {
	platform string
	interval time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  atomic.Bool
}

func newScheduler(platform string, interval time.Duration) scheduler {
	return scheduler{
		platform: platform,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// run executes the polling loop until the context is cancelled or stop is
// called. Callers invoke it in its own goroutine.
func (s *scheduler) run(ctx context.Context, tick func(context.Context)) {
	slog.Info("Starting monitor", "platform", s.platform, "interval", s.interval)

	s.wg.Add(1)
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Initial check
	s.tick(ctx, tick)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Monitor stopped (context cancelled)", "platform", s.platform)
			return
		case <-s.stopChan:
			slog.Info("Monitor stopped", "platform", s.platform)
			return
		case <-ticker.C:
			s.tick(ctx, tick)
		}
	}
}

func (s *scheduler) tick(ctx context.Context, tick func(context.Context)) {
	if !s.running.CompareAndSwap(false, true) {
		slog.Warn("Previous tick still running, skipping", "platform", s.platform)
		telemetry.CountTickSkipped(s.platform)
		return
	}
	defer s.running.Store(false)

	tick(ctx)
	telemetry.CountPollCycle(s.platform)
}

// stop signals the loop to exit and waits for the current tick to finish
func (s *scheduler) stop() {
	close(s.stopChan)
	s.wg.Wait()
}
