// Package lessonwatch is the page side of the pipeline: it attaches to a
// Duolingo session, captures graded mistakes from the DOM, and flushes
// them when the user leaves the lesson flow.
package lessonwatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/duoflash/lessonwatch/internal/browser"
	"github.com/hazyhaar/duoflash/lessonwatch/internal/nav"
	"github.com/hazyhaar/duoflash/lessonwatch/internal/observer"
	"github.com/hazyhaar/duoflash/mistake"
)

// Sink receives the drained batch when a session ends. The in-process
// deployment passes the forge directly; the split deployment passes a
// bus client.
type Sink interface {
	Flush(ctx context.Context, records []mistake.Record) error
}

// Watcher owns the browser session, the capture observer, the mistake
// buffer and the navigation monitor.
type Watcher struct {
	cfg    Config
	sink   Sink
	logger *slog.Logger

	mgr *browser.Manager
	buf *mistake.Buffer
}

// New creates a Watcher. Call Run to start watching.
func New(cfg Config, sink Sink, logger *slog.Logger) *Watcher {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		cfg:    cfg,
		sink:   sink,
		logger: logger,
		buf:    &mistake.Buffer{},
	}
}

// Buffer exposes the mistake buffer, for tests and status reporting.
func (w *Watcher) Buffer() *mistake.Buffer { return w.buf }

// Run attaches to the browser and blocks until ctx is cancelled. On the
// way out any still-buffered mistakes are flushed, so closing the daemon
// mid-lesson does not lose the session.
func (w *Watcher) Run(ctx context.Context) error {
	w.mgr = browser.NewManager(browser.Config{
		RemoteURL: w.cfg.Browser.Remote,
		Headless:  w.cfg.Browser.Headless,
		Logger:    w.logger,
	})
	if _, err := w.mgr.Start(); err != nil {
		return fmt.Errorf("lessonwatch: %w", err)
	}
	defer w.mgr.Close()

	tab, err := browser.OpenTab(ctx, w.mgr, w.cfg.Page.URL)
	if err != nil {
		return fmt.Errorf("lessonwatch: %w", err)
	}
	defer tab.Close()

	obs := observer.New(observer.Config{
		Session:      tab,
		Buffer:       w.buf,
		SettleWindow: w.cfg.Observe.SettleWindow,
		FromLanguage: w.cfg.Page.FromLanguage,
		ToLanguage:   w.cfg.Page.ToLanguage,
		Logger:       w.logger,
	})
	if err := obs.Start(ctx); err != nil {
		return fmt.Errorf("lessonwatch: %w", err)
	}

	monitor := nav.NewMonitor(tab.Path, w.cfg.Observe.PollInterval, w.flush, w.logger)
	monitor.Run(ctx)

	// Shutdown: whatever the session accumulated still goes out.
	w.flush(context.WithoutCancel(ctx))
	return nil
}

// flush drains the buffer and hands the batch to the sink. Best-effort:
// a failed delivery is logged and the batch is dropped.
func (w *Watcher) flush(ctx context.Context) {
	records := w.buf.Drain()
	if len(records) == 0 {
		w.logger.Debug("lessonwatch: nothing to flush")
		return
	}

	w.logger.Info("lessonwatch: flushing session", "mistakes", len(records))
	if err := w.sink.Flush(ctx, records); err != nil {
		w.logger.Error("lessonwatch: flush failed", "error", err, "dropped", len(records))
	}
}
