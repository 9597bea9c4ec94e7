package store

// Schema contains the complete DDL for the deckforge tables.
const Schema = `
-- Settings: small key-value store (credential gateway)
CREATE TABLE IF NOT EXISTS settings (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Synthesis journal: one row per flush that reached the synthesizer
CREATE TABLE IF NOT EXISTS synth_log (
    id         TEXT PRIMARY KEY,
    deck_name  TEXT NOT NULL DEFAULT '',
    mistakes   INTEGER NOT NULL DEFAULT 0,
    cards      INTEGER NOT NULL DEFAULT 0,
    error      TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_synth_log_created ON synth_log(created_at DESC);
`
