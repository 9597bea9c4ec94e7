// Package deckforge is the privileged half of the pipeline: it receives
// flush triggers carrying captured mistakes, debounces them, and runs the
// Gemini-to-Anki synthesis.
package deckforge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/duoflash/deckforge/internal/anki"
	"github.com/hazyhaar/duoflash/deckforge/internal/debounce"
	"github.com/hazyhaar/duoflash/deckforge/internal/fault"
	"github.com/hazyhaar/duoflash/deckforge/internal/store"
	"github.com/hazyhaar/duoflash/deckforge/internal/synth"
	"github.com/hazyhaar/duoflash/mistake"
)

// Forge owns the store, the debouncer and the synthesizer. One Forge per
// process; it is the Sink the capture side flushes into, and the backend
// of the bus server.
type Forge struct {
	cfg   Config
	store *store.Store
	sched *debounce.Scheduler
	synth *synth.Synthesizer
	log   *slog.Logger
}

// New opens the store and wires the pipeline. Close releases the store.
func New(ctx context.Context, cfg Config, log *slog.Logger) (*Forge, error) {
	cfg.ApplyDefaults()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("deckforge: open store: %w", err)
	}

	client := anki.NewClient(cfg.AnkiURL)
	pub := anki.NewPublisher(client, log)
	factory := func(key string) synth.TextModel { return synth.NewGeminiModel(key) }
	sy := synth.New(st, factory, client, pub, cfg.Model, cfg.FromLanguage, cfg.ToLanguage, log)

	f := &Forge{cfg: cfg, store: st, synth: sy, log: log}
	f.sched = debounce.New(ctx, cfg.Debounce, f.runSynthesis)
	return f, nil
}

// NewWithStore wires a Forge over an already-open store. Used by tests.
func NewWithStore(ctx context.Context, cfg Config, st *store.Store, sy *synth.Synthesizer, log *slog.Logger) *Forge {
	cfg.ApplyDefaults()
	f := &Forge{cfg: cfg, store: st, synth: sy, log: log}
	f.sched = debounce.New(ctx, cfg.Debounce, f.runSynthesis)
	return f
}

// Flush accepts a batch of captured mistakes and schedules synthesis.
// Rapid successive flushes coalesce; the last batch wins.
func (f *Forge) Flush(_ context.Context, records []mistake.Record) error {
	if len(records) == 0 {
		return nil
	}
	f.log.Info("forge: flush received", "mistakes", len(records))
	f.sched.Schedule(records)
	return nil
}

// Drain runs any pending synthesis immediately. Called at shutdown so a
// batch caught inside the debounce window is not lost.
func (f *Forge) Drain() {
	f.sched.FlushNow()
}

// Close stops the debouncer and the store.
func (f *Forge) Close() error {
	f.sched.Stop()
	return f.store.Close()
}

// APIKey reads the stored credential, empty when none is set.
func (f *Forge) APIKey(ctx context.Context) (string, error) {
	return f.store.APIKey(ctx)
}

// SetAPIKey validates and stores the credential.
func (f *Forge) SetAPIKey(ctx context.Context, key string) error {
	return f.store.SetAPIKey(ctx, key)
}

// RemoveAPIKey deletes the credential. Idempotent.
func (f *Forge) RemoveAPIKey(ctx context.Context) error {
	return f.store.RemoveAPIKey(ctx)
}

func (f *Forge) runSynthesis(ctx context.Context, records []mistake.Record) {
	res, err := f.synth.Synthesize(ctx, records)

	entry := store.SynthEntry{
		DeckName: res.DeckName,
		Mistakes: len(records),
		Cards:    res.Cards,
	}
	if err != nil {
		entry.Error = string(fault.CodeOf(err))
		f.log.Error("forge: synthesis failed",
			"code", fault.CodeOf(err), "user", fault.UserMessage(err), "error", err)
	}
	if jerr := f.store.LogSynthesis(ctx, entry); jerr != nil {
		f.log.Warn("forge: journal write failed", "error", jerr)
	}
}
