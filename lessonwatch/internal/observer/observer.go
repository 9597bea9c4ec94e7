// Package observer watches a practice session: it injects a
// MutationObserver hook around the check button, waits for the grading
// DOM churn to settle, then extracts the failed exercise into the
// mistake buffer.
package observer

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/duoflash/lessonwatch/internal/extract"
	"github.com/hazyhaar/duoflash/mistake"
)

//go:embed observer.js
var observerJS string

const bindingName = "__duoflash_binding"

// stopJS disconnects the page-side MutationObserver; rearmJS additionally
// re-hooks the check button for the next exercise.
const (
	stopJS  = `() => window.__duoflash && window.__duoflash.stop()`
	rearmJS = `() => window.__duoflash && window.__duoflash.rearm()`
)

// Session is what the observer needs from the page: script evaluation
// and the stream of binding calls made by the injected hook. Satisfied
// by browser.Tab.
type Session interface {
	// EvalString evaluates js and returns its string value.
	EvalString(ctx context.Context, js string) (string, error)
	// Run evaluates js for its side effects.
	Run(ctx context.Context, js string) error
	// AddBinding registers a page binding callable from injected JS.
	AddBinding(name string) error
	// OnBinding delivers binding-call payloads until ctx is cancelled.
	OnBinding(ctx context.Context, name string, fn func(payload string))
}

// Observer drives capture for a single session.
type Observer struct {
	page   Session
	buf    *mistake.Buffer
	settle time.Duration
	from   string
	to     string
	logger *slog.Logger

	mu        sync.Mutex
	timer     *time.Timer
	capturing bool
}

// Config for creating an Observer.
type Config struct {
	Session      Session
	Buffer       *mistake.Buffer
	SettleWindow time.Duration
	FromLanguage string
	ToLanguage   string
	Logger       *slog.Logger
}

// New creates an Observer for the given session.
func New(cfg Config) *Observer {
	if cfg.SettleWindow <= 0 {
		cfg.SettleWindow = 300 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Observer{
		page:   cfg.Session,
		buf:    cfg.Buffer,
		settle: cfg.SettleWindow,
		from:   cfg.FromLanguage,
		to:     cfg.ToLanguage,
		logger: cfg.Logger,
	}
}

// Start registers the page binding, injects the observer hook and begins
// listening for mutation reports. It returns once listening is set up;
// capture then runs until ctx is cancelled.
func (o *Observer) Start(ctx context.Context) error {
	if err := o.page.AddBinding(bindingName); err != nil {
		o.logger.Warn("observer: addBinding failed (may already exist)", "error", err)
	}

	go o.page.OnBinding(ctx, bindingName, func(payload string) {
		o.handleSignal(ctx, payload)
	})

	if err := o.Inject(ctx); err != nil {
		return err
	}

	o.logger.Info("observer: capture armed")
	return nil
}

// Inject (re)injects the page hook. The script guards itself, so calling
// it again after an SPA navigation is safe.
func (o *Observer) Inject(ctx context.Context) error {
	if err := o.page.Run(ctx, observerJS); err != nil {
		return fmt.Errorf("observer: inject hook: %w", err)
	}
	return nil
}

// handleSignal processes one report from the injected hook. Every
// mutation report restarts the settle timer; when the page stays quiet
// for the settle window, the exercise result is read.
func (o *Observer) handleSignal(ctx context.Context, payload string) {
	var sig struct {
		Event string `json:"event"`
		Count int    `json:"count"`
	}
	if err := json.Unmarshal([]byte(payload), &sig); err != nil {
		o.logger.Warn("observer: parse binding payload", "error", err)
		return
	}

	switch sig.Event {
	case "armed":
		o.logger.Debug("observer: check clicked, watching mutations")
	case "mutations":
		o.bump(ctx)
	}
}

// bump restarts the settle timer. Reports arriving while a capture is in
// flight are dropped: one screen yields at most one record.
func (o *Observer) bump(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.capturing {
		return
	}
	if o.timer != nil {
		o.timer.Stop()
	}
	o.timer = time.AfterFunc(o.settle, func() { o.capture(ctx) })
}

// capture reads the graded exercise out of the DOM. The page-side
// observer is disconnected first so the read is against a stable
// subtree. A correct answer or a partially rendered panel yields empty
// texts and no record.
func (o *Observer) capture(ctx context.Context) {
	o.mu.Lock()
	if o.capturing {
		o.mu.Unlock()
		return
	}
	o.capturing = true
	o.mu.Unlock()

	if err := o.page.Run(ctx, stopJS); err != nil {
		o.logger.Debug("observer: stop eval failed", "error", err)
	}

	eval := func(js string) (string, error) {
		return o.page.EvalString(ctx, js)
	}

	prompt, err := eval(extract.HintTokensJS)
	if err != nil {
		o.logger.Warn("observer: read prompt", "error", err)
		o.rearm(ctx)
		return
	}
	answer, kind, err := extract.ResolveUserAnswer(eval)
	if err != nil {
		o.logger.Warn("observer: read answer", "error", err)
		o.rearm(ctx)
		return
	}
	solution, err := eval(extract.SolutionJS)
	if err != nil {
		o.logger.Warn("observer: read solution", "error", err)
		o.rearm(ctx)
		return
	}

	rec, err := mistake.New(prompt, answer, solution, kind, o.from, o.to)
	if err != nil {
		// Not a graded mistake: correct answer or mid-transition DOM.
		o.logger.Debug("observer: incomplete capture skipped",
			"prompt", prompt != "", "answer", answer != "", "solution", solution != "")
		o.rearm(ctx)
		return
	}

	o.buf.Append(rec)
	o.logger.Info("observer: mistake captured",
		"kind", rec.ExerciseKind, "audio", rec.IsAudio, "buffered", o.buf.Len())
	o.rearm(ctx)
}

// rearm ends the capture and re-hooks the check button for the next
// exercise. The injection guard makes the reinject a no-op when the hook
// is already live. Every capture path ends here, so this is also where
// the in-flight flag is released.
func (o *Observer) rearm(ctx context.Context) {
	o.mu.Lock()
	o.capturing = false
	o.mu.Unlock()

	if err := o.page.Run(ctx, rearmJS); err != nil {
		o.logger.Debug("observer: rearm eval failed", "error", err)
	}
	if err := o.Inject(ctx); err != nil {
		o.logger.Debug("observer: reinject failed", "error", err)
	}
}
