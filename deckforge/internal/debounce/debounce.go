// Package debounce coalesces rapid flush triggers into a single synthesis
// run after a quiet period.
package debounce

import (
	"context"
	"sync"
	"time"

	"github.com/hazyhaar/duoflash/mistake"
)

// RunFunc executes one synthesis attempt for a batch.
type RunFunc func(ctx context.Context, batch []mistake.Record)

// Scheduler owns a cancellable deferred task and the most recently
// submitted payload. A new Schedule call supersedes the pending one
// (last-write-wins, not append); the run fires once per quiet period.
// Pending state is cleared before the run starts, so a failed run never
// blocks the next trigger.
type Scheduler struct {
	window time.Duration
	run    RunFunc

	mu      sync.Mutex
	pending []mistake.Record
	timer   *time.Timer
	ctx     context.Context
}

// New creates a Scheduler. The window is the quiet period; run is invoked
// on its own goroutine when the window expires without another Schedule
// call. The run keeps ctx's values but not its cancellation: a batch
// drained during shutdown still has to reach the card service.
func New(ctx context.Context, window time.Duration, run RunFunc) *Scheduler {
	if window <= 0 {
		window = 2 * time.Second
	}
	return &Scheduler{window: window, run: run, ctx: context.WithoutCancel(ctx)}
}

// Schedule replaces any pending batch with this one and restarts the
// quiet-period timer.
func (s *Scheduler) Schedule(batch []mistake.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = batch
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.window, s.fire)
}

// FlushNow runs any pending batch immediately, cancelling the timer.
// Used at shutdown.
func (s *Scheduler) FlushNow() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(batch) > 0 {
		s.run(s.ctx, batch)
	}
}

// Stop cancels any pending run without executing it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = nil
	s.mu.Unlock()
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.timer = nil
	s.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	s.run(s.ctx, batch)
}
