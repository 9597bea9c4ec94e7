package deckforge

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/duoflash/bus"
	"github.com/hazyhaar/duoflash/dbopen"
	"github.com/hazyhaar/duoflash/deck"
	"github.com/hazyhaar/duoflash/deckforge/internal/store"
	"github.com/hazyhaar/duoflash/deckforge/internal/synth"
	"github.com/hazyhaar/duoflash/mistake"
)

type fakeModel struct {
	mu      sync.Mutex
	calls   int
	prompts []string
}

func (f *fakeModel) GenerateText(_ context.Context, _, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return `{"mazo":"Español → Inglés","tarjetas":[{"front":"Hola","back":"Hello"}]}`, nil
}

type okProbe struct{}

func (okProbe) Version(context.Context) (int, error) { return 6, nil }

type countPub struct {
	mu    sync.Mutex
	decks []deck.Deck
}

func (p *countPub) Publish(_ context.Context, d deck.Deck) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.decks = append(p.decks, d)
	return len(d.Cards), nil
}

func testForge(t *testing.T, debounce time.Duration) (*Forge, *store.Store, *fakeModel, *countPub) {
	t.Helper()
	return testForgeCtx(t, context.Background(), debounce)
}

func testForgeCtx(t *testing.T, ctx context.Context, debounce time.Duration) (*Forge, *store.Store, *fakeModel, *countPub) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	db := dbopen.OpenMemory(t, dbopen.WithSchema(store.Schema))
	st, err := store.OpenDB(db)
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}

	model := &fakeModel{}
	pub := &countPub{}
	sy := synth.New(st, func(string) synth.TextModel { return model }, okProbe{}, pub,
		"gemini-2.5-flash", "es", "en", log)

	cfg := Config{Debounce: debounce, DBPath: ":memory:"}
	f := NewWithStore(ctx, cfg, st, sy, log)
	t.Cleanup(func() { f.sched.Stop() })
	return f, st, model, pub
}

func seedKey(t *testing.T, st *store.Store) {
	t.Helper()
	if err := st.SetAPIKey(context.Background(), "AIzaSyD-test-key-0123456789"); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}
}

func rec(t *testing.T, prompt string) mistake.Record {
	t.Helper()
	r, err := mistake.New(prompt, "Hi", "Hello", "translate", "es", "en")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestFlushBurstYieldsOneSynthesis(t *testing.T) {
	f, st, model, pub := testForge(t, 40*time.Millisecond)
	seedKey(t, st)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := f.Flush(ctx, []mistake.Record{rec(t, "Hola")}); err != nil {
			t.Fatalf("Flush: %v", err)
		}
	}
	if err := f.Flush(ctx, []mistake.Record{rec(t, "Adiós"), rec(t, "Hola")}); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		model.mu.Lock()
		calls := model.calls
		model.mu.Unlock()
		if calls > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("synthesis never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}

	time.Sleep(100 * time.Millisecond)
	model.mu.Lock()
	defer model.mu.Unlock()
	if model.calls != 1 {
		t.Fatalf("model calls = %d, want 1", model.calls)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.decks) != 1 {
		t.Fatalf("published %d decks, want 1", len(pub.decks))
	}

	entries, err := st.RecentSyntheses(ctx, 10)
	if err != nil {
		t.Fatalf("RecentSyntheses: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("journal has %d rows, want 1", len(entries))
	}
	if entries[0].Mistakes != 2 || entries[0].Cards != 1 || entries[0].Error != "" {
		t.Errorf("journal row = %+v", entries[0])
	}
}

func TestDrainAfterShutdownPublishesBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f, st, model, pub := testForgeCtx(t, ctx, time.Hour)
	seedKey(t, st)

	if err := f.Flush(ctx, []mistake.Record{rec(t, "Hola")}); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	// Signal-driven shutdown: the parent context dies, then the daemon
	// drains whatever the debounce window was still holding.
	cancel()
	f.Drain()

	pub.mu.Lock()
	published := len(pub.decks)
	pub.mu.Unlock()
	if published != 1 {
		t.Fatalf("published %d decks after shutdown drain, want 1", published)
	}
	model.mu.Lock()
	calls := model.calls
	model.mu.Unlock()
	if calls != 1 {
		t.Fatalf("model calls = %d, want 1", calls)
	}

	entries, err := st.RecentSyntheses(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentSyntheses: %v", err)
	}
	if len(entries) != 1 || entries[0].Error != "" {
		t.Fatalf("journal after shutdown drain = %+v, want one clean row", entries)
	}
}

func TestFailedSynthesisIsJournaled(t *testing.T) {
	f, st, _, _ := testForge(t, 20*time.Millisecond)
	// No API key stored.

	if err := f.Flush(context.Background(), []mistake.Record{rec(t, "Hola")}); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	f.Drain()

	entries, err := st.RecentSyntheses(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentSyntheses: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("journal has %d rows, want 1", len(entries))
	}
	if entries[0].Error != "NO_API_KEY" {
		t.Errorf("journal error = %q, want NO_API_KEY", entries[0].Error)
	}
}

func TestBusEndpoints(t *testing.T) {
	f, _, model, _ := testForge(t, 20*time.Millisecond)
	srv := httptest.NewServer(f.Router())
	defer srv.Close()

	client := bus.NewClient(srv.URL)
	ctx := context.Background()

	// No key yet.
	key, err := client.RequestKey(ctx)
	if err != nil {
		t.Fatalf("RequestKey: %v", err)
	}
	if key != "" {
		t.Fatalf("key = %q, want empty", key)
	}

	if err := client.StoreKey(ctx, "nope"); err == nil {
		t.Fatal("StoreKey accepted a malformed key")
	}
	if err := client.StoreKey(ctx, "AIzaSyD-test-key-0123456789"); err != nil {
		t.Fatalf("StoreKey: %v", err)
	}

	key, err = client.RequestKey(ctx)
	if err != nil {
		t.Fatalf("RequestKey: %v", err)
	}
	if key != "AIzaSyD-test-key-0123456789" {
		t.Fatalf("key = %q", key)
	}

	if err := client.Flush(ctx, []mistake.Record{rec(t, "Hola")}); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	f.Drain()
	model.mu.Lock()
	calls := model.calls
	model.mu.Unlock()
	if calls != 1 {
		t.Fatalf("model calls = %d, want 1", calls)
	}

	if err := client.RemoveKey(ctx); err != nil {
		t.Fatalf("RemoveKey: %v", err)
	}
	key, err = client.RequestKey(ctx)
	if err != nil {
		t.Fatalf("RequestKey: %v", err)
	}
	if key != "" {
		t.Fatalf("key after remove = %q, want empty", key)
	}
}
