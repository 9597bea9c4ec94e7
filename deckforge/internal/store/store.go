// Package store is the SQLite persistence layer of deckforge: the
// credential gateway (Gemini API key) and the synthesis journal.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/duoflash/dbopen"
)

const (
	keyMinLength = 20
	keyPrefix    = "AIza"
)

// ErrInvalidKey is returned by Set/ValidateAPIKey for credentials that
// fail the structural format check.
var ErrInvalidKey = errors.New("store: API key must be non-empty, start with AIza and have at least 20 characters")

// Store is the deckforge database handle.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the deckforge SQLite database at path and
// applies the schema.
func Open(path string) (*Store, error) {
	db, err := dbopen.Open(path,
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenDB wraps an already-open database. Used by tests with dbopen.OpenMemory.
func OpenDB(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ValidateAPIKey enforces the credential format contract: non-empty,
// known prefix, minimum length.
func ValidateAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" || len(key) < keyMinLength || !strings.HasPrefix(key, keyPrefix) {
		return ErrInvalidKey
	}
	return nil
}

// APIKey returns the stored credential, or "" when none is set.
func (s *Store) APIKey(ctx context.Context) (string, error) {
	var key string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'gemini_api_key'`).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: get api key: %w", err)
	}
	return key, nil
}

// SetAPIKey validates and stores the credential.
func (s *Store) SetAPIKey(ctx context.Context, key string) error {
	if err := ValidateAPIKey(key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES ('gemini_api_key', ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		strings.TrimSpace(key), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("store: set api key: %w", err)
	}
	return nil
}

// RemoveAPIKey deletes the stored credential. Removing an absent key is
// not an error.
func (s *Store) RemoveAPIKey(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM settings WHERE key = 'gemini_api_key'`)
	if err != nil {
		return fmt.Errorf("store: remove api key: %w", err)
	}
	return nil
}

// SynthEntry is one journal row: a flush that went through synthesis.
type SynthEntry struct {
	ID       string
	DeckName string
	Mistakes int
	Cards    int
	Error    string
}

// LogSynthesis appends a journal entry.
func (s *Store) LogSynthesis(ctx context.Context, e SynthEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO synth_log (id, deck_name, mistakes, cards, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.DeckName, e.Mistakes, e.Cards, e.Error, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("store: log synthesis: %w", err)
	}
	return nil
}

// RecentSyntheses returns the latest journal entries, newest first.
func (s *Store) RecentSyntheses(ctx context.Context, limit int) ([]SynthEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, deck_name, mistakes, cards, error FROM synth_log
		 ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent syntheses: %w", err)
	}
	defer rows.Close()

	var out []SynthEntry
	for rows.Next() {
		var e SynthEntry
		if err := rows.Scan(&e.ID, &e.DeckName, &e.Mistakes, &e.Cards, &e.Error); err != nil {
			return nil, fmt.Errorf("store: scan synth entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
