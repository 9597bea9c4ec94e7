package store

import (
	"context"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/duoflash/dbopen"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := OpenDB(dbopen.OpenMemory(t))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	return s
}

func TestValidateAPIKey(t *testing.T) {
	cases := []struct {
		key string
		ok  bool
	}{
		{"AIzaSyA1234567890abcdefghijklmnopqrstuvw", true},
		{"AIzaSy0123456789012345", true},
		{"", false},
		{"AIza", false},                                   // too short
		{"sk-1234567890123456789012345678901234", false}, // wrong prefix
		{"   ", false},
	}
	for _, tc := range cases {
		err := ValidateAPIKey(tc.key)
		if tc.ok && err != nil {
			t.Errorf("ValidateAPIKey(%q): got %v, want nil", tc.key, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidKey) {
			t.Errorf("ValidateAPIKey(%q): got %v, want ErrInvalidKey", tc.key, err)
		}
	}
}

func TestAPIKey_Lifecycle(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	got, err := s.APIKey(ctx)
	if err != nil {
		t.Fatalf("APIKey: %v", err)
	}
	if got != "" {
		t.Errorf("APIKey before set: got %q, want empty", got)
	}

	const key = "AIzaSyA1234567890abcdefghijklmnopqrstuvw"
	if err := s.SetAPIKey(ctx, key); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}

	got, err = s.APIKey(ctx)
	if err != nil {
		t.Fatalf("APIKey: %v", err)
	}
	if got != key {
		t.Errorf("APIKey: got %q, want %q", got, key)
	}

	// Overwrite is allowed.
	const key2 = "AIzaSyB1234567890abcdefghijklmnopqrstuvw"
	if err := s.SetAPIKey(ctx, key2); err != nil {
		t.Fatalf("SetAPIKey overwrite: %v", err)
	}
	got, _ = s.APIKey(ctx)
	if got != key2 {
		t.Errorf("APIKey after overwrite: got %q, want %q", got, key2)
	}

	if err := s.RemoveAPIKey(ctx); err != nil {
		t.Fatalf("RemoveAPIKey: %v", err)
	}
	got, _ = s.APIKey(ctx)
	if got != "" {
		t.Errorf("APIKey after remove: got %q, want empty", got)
	}

	// Removing again is not an error.
	if err := s.RemoveAPIKey(ctx); err != nil {
		t.Errorf("RemoveAPIKey twice: %v", err)
	}
}

func TestSetAPIKey_RejectsInvalid(t *testing.T) {
	s := openTest(t)
	if err := s.SetAPIKey(context.Background(), "bad"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("SetAPIKey: got %v, want ErrInvalidKey", err)
	}
}

func TestSynthJournal(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	entries := []SynthEntry{
		{DeckName: "Español → Inglés", Mistakes: 3, Cards: 3},
		{DeckName: "Español → Inglés", Mistakes: 1, Cards: 0, Error: "NETWORK_ERROR: timeout"},
	}
	for _, e := range entries {
		if err := s.LogSynthesis(ctx, e); err != nil {
			t.Fatalf("LogSynthesis: %v", err)
		}
	}

	got, err := s.RecentSyntheses(ctx, 10)
	if err != nil {
		t.Fatalf("RecentSyntheses: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("RecentSyntheses: got %d entries, want 2", len(got))
	}
	for _, e := range got {
		if e.ID == "" {
			t.Error("journal entry missing generated ID")
		}
	}
}
