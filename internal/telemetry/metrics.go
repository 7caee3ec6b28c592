// Package telemetry provides Prometheus metrics for the polling loops.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// PollCycles counts completed monitor ticks per platform.
	PollCycles *prometheus.CounterVec
	// NotificationsSent counts delivered notifications per platform.
	NotificationsSent *prometheus.CounterVec
	// FetchErrors counts per-entity fetch failures per platform.
	FetchErrors *prometheus.CounterVec
	// TicksSkipped counts ticks skipped because the previous one was still running.
	TicksSkipped *prometheus.CounterVec
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		PollCycles = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_poll_cycles_total",
			Help: "Number of completed poll ticks",
		}, []string{"platform"})
		NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_notifications_sent_total",
			Help: "Number of notifications delivered to Discord",
		}, []string{"platform"})
		FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_fetch_errors_total",
			Help: "Number of per-entity platform fetch failures",
		}, []string{"platform"})
		TicksSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_ticks_skipped_total",
			Help: "Number of poll ticks skipped due to an overrunning previous tick",
		}, []string{"platform"})
	})
}

// CountPollCycle increments the tick counter if metrics are initialized.
func CountPollCycle(platform string) {
	if PollCycles != nil {
		PollCycles.WithLabelValues(platform).Inc()
	}
}

// CountNotification increments the sent counter if metrics are initialized.
func CountNotification(platform string) {
	if NotificationsSent != nil {
		NotificationsSent.WithLabelValues(platform).Inc()
	}
}

// CountFetchError increments the error counter if metrics are initialized.
func CountFetchError(platform string) {
	if FetchErrors != nil {
		FetchErrors.WithLabelValues(platform).Inc()
	}
}

// CountTickSkipped increments the skip counter if metrics are initialized.
func CountTickSkipped(platform string) {
	if TicksSkipped != nil {
		TicksSkipped.WithLabelValues(platform).Inc()
	}
}
