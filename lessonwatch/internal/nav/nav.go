// Package nav detects the end of a practice session by watching the
// page's logical path.
package nav

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Tracker is the pure transition detector: it reports the single moment
// the path leaves the lesson flow. Staying inside the flow, or staying
// outside it, never triggers.
type Tracker struct {
	previous string
}

// NewTracker starts tracking from an initial path.
func NewTracker(initial string) *Tracker {
	return &Tracker{previous: initial}
}

// inLesson reports whether a path belongs to the practice flow.
func inLesson(path string) bool {
	return strings.Contains(path, "/practice") || strings.Contains(path, "/lesson")
}

// Observe feeds the current path and reports whether this sample is an
// exit from the lesson flow.
func (t *Tracker) Observe(current string) bool {
	left := inLesson(t.previous) && !inLesson(current)
	t.previous = current
	return left
}

// PathFunc samples the page's current path.
type PathFunc func(ctx context.Context) (string, error)

// Monitor polls the path on an interval and invokes onExit once per
// lesson exit.
type Monitor struct {
	path     PathFunc
	interval time.Duration
	onExit   func(ctx context.Context)
	logger   *slog.Logger
}

func NewMonitor(path PathFunc, interval time.Duration, onExit func(ctx context.Context), logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{path: path, interval: interval, onExit: onExit, logger: logger}
}

// Run polls until ctx is cancelled. Sampling errors are logged and the
// previous path is kept, so a transient eval failure cannot fabricate an
// exit.
func (m *Monitor) Run(ctx context.Context) {
	initial, err := m.path(ctx)
	if err != nil {
		m.logger.Warn("nav: initial path read failed", "error", err)
	}
	tracker := NewTracker(initial)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current, err := m.path(ctx)
			if err != nil {
				m.logger.Debug("nav: path read failed", "error", err)
				continue
			}
			if tracker.Observe(current) {
				m.logger.Info("nav: left lesson flow", "path", current)
				m.onExit(ctx)
			}
		}
	}
}
