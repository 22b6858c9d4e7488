// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// SQLite schema for price history and transcript archive
const Schema = `
-- Metadata table for schema version
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- Price observations: one row per push notification or manual refresh
CREATE TABLE IF NOT EXISTS price_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    trip_id TEXT NOT NULL,
    trip_name TEXT,
    flight_value REAL,
    flight_currency TEXT,
    hotel_value REAL,
    hotel_currency TEXT,
    total_value REAL,
    total_currency TEXT,
    observed_at INTEGER NOT NULL  -- Unix timestamp
);

CREATE INDEX IF NOT EXISTS idx_price_history_trip ON price_history(trip_id, observed_at);

-- Transcript archive: one row per turn, replaced wholesale per thread
CREATE TABLE IF NOT EXISTS transcript_turns (
    thread_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    turn_id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    payload TEXT,                 -- JSON: tool calls / tool result
    created_at INTEGER NOT NULL,  -- Unix timestamp
    PRIMARY KEY (thread_id, position)
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS idx_transcript_turns_thread ON transcript_turns(thread_id);
`

// InitMetadata seeds the metadata table on first open
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
`
