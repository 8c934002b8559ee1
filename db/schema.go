// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Timestamps are stored as unix nanoseconds so both drivers round-trip them.
const schema = `
-- Issuance ledger
CREATE TABLE IF NOT EXISTS ticket (
    ticket_date TEXT NOT NULL,
    sequence INTEGER NOT NULL CHECK (sequence > 0),
    name TEXT NOT NULL DEFAULT '',
    contact TEXT NOT NULL DEFAULT '',
    issued_at BIGINT NOT NULL,
    PRIMARY KEY (ticket_date, sequence)
);

-- Date the claim log belongs to (single row)
CREATE TABLE IF NOT EXISTS queue_state (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    log_date TEXT NOT NULL,
    version BIGINT NOT NULL DEFAULT 0
);

-- Claim log
CREATE TABLE IF NOT EXISTS claim (
    id TEXT PRIMARY KEY,
    log_date TEXT NOT NULL,
    sequence INTEGER NOT NULL CHECK (sequence > 0),
    room TEXT NOT NULL CHECK (room <> ''),
    name TEXT NOT NULL DEFAULT '',
    claimed_at BIGINT NOT NULL,
    position INTEGER NOT NULL,
    UNIQUE (log_date, sequence),
    UNIQUE (log_date, position)
);

CREATE INDEX IF NOT EXISTS idx_claim_log_date ON claim(log_date);
`
