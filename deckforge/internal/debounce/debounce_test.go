package debounce

import (
	"context"
	"testing"
	"time"

	"github.com/hazyhaar/duoflash/mistake"
)

func rec(t *testing.T, prompt string) mistake.Record {
	t.Helper()
	r, err := mistake.New(prompt, "a", "b", "translate", "es", "en")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestCoalescesBurstIntoOneRun(t *testing.T) {
	runs := make(chan []mistake.Record, 8)
	s := New(context.Background(), 30*time.Millisecond, func(_ context.Context, batch []mistake.Record) {
		runs <- batch
	})
	defer s.Stop()

	for i := 0; i < 5; i++ {
		s.Schedule([]mistake.Record{rec(t, "prompt"), rec(t, "last")})
		time.Sleep(5 * time.Millisecond)
	}
	last := []mistake.Record{rec(t, "final")}
	s.Schedule(last)

	select {
	case got := <-runs:
		if len(got) != 1 || got[0].Prompt != "final" {
			t.Fatalf("ran with wrong batch: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("run never fired")
	}

	select {
	case got := <-runs:
		t.Fatalf("extra run with batch %+v", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWindowResetsOnEachTrigger(t *testing.T) {
	runs := make(chan []mistake.Record, 1)
	s := New(context.Background(), 50*time.Millisecond, func(_ context.Context, batch []mistake.Record) {
		runs <- batch
	})
	defer s.Stop()

	s.Schedule([]mistake.Record{rec(t, "one")})
	time.Sleep(30 * time.Millisecond)
	s.Schedule([]mistake.Record{rec(t, "two")})

	select {
	case got := <-runs:
		t.Fatalf("fired before reset window elapsed: %+v", got)
	case <-time.After(30 * time.Millisecond):
	}

	select {
	case got := <-runs:
		if got[0].Prompt != "two" {
			t.Fatalf("got %q, want batch from last trigger", got[0].Prompt)
		}
	case <-time.After(time.Second):
		t.Fatal("run never fired")
	}
}

func TestFlushNowRunsPendingImmediately(t *testing.T) {
	runs := make(chan []mistake.Record, 1)
	s := New(context.Background(), time.Hour, func(_ context.Context, batch []mistake.Record) {
		runs <- batch
	})

	s.Schedule([]mistake.Record{rec(t, "pending")})
	s.FlushNow()

	select {
	case got := <-runs:
		if got[0].Prompt != "pending" {
			t.Fatalf("got %q", got[0].Prompt)
		}
	case <-time.After(time.Second):
		t.Fatal("FlushNow did not run the batch")
	}

	// A second FlushNow with nothing pending is a no-op.
	s.FlushNow()
	select {
	case got := <-runs:
		t.Fatalf("unexpected second run: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFlushNowSurvivesCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runs := make(chan error, 1)
	s := New(ctx, time.Hour, func(runCtx context.Context, _ []mistake.Record) {
		runs <- runCtx.Err()
	})

	s.Schedule([]mistake.Record{rec(t, "shutdown batch")})
	cancel()
	s.FlushNow()

	select {
	case err := <-runs:
		if err != nil {
			t.Fatalf("run context already dead: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("drain after cancel did not run the batch")
	}
}

func TestStopCancelsPending(t *testing.T) {
	ran := make(chan struct{}, 1)
	s := New(context.Background(), 20*time.Millisecond, func(context.Context, []mistake.Record) {
		ran <- struct{}{}
	})

	s.Schedule([]mistake.Record{rec(t, "doomed")})
	s.Stop()

	select {
	case <-ran:
		t.Fatal("run fired after Stop")
	case <-time.After(80 * time.Millisecond):
	}
}
