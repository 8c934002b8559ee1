// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the SQL database, creates the schema, and classifies
driver errors.

# Opening

	conn, err := db.Open(db.SQLite, "queue.db", 2*time.Second)

SQLite (modernc.org/sqlite) is opened in WAL mode with a busy timeout and
immediate transactions. Postgres (github.com/lib/pq) takes the URL as is.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - ticket: issuance ledger, primary key (ticket_date, sequence)
  - queue_state: the date the claim log belongs to, plus a version
  - claim: the claim log, unique per (log_date, sequence) and (log_date, position)

# Error Classification

	db.IsUniqueViolation(err) // duplicate ticket or claim
	db.IsBusy(err)            // write lock not acquired in time
*/
package db
