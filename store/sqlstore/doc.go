// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package sqlstore implements store.Store on the claim and queue_state tables.

Writers are serialized by the database: sqlite connections from db.Open
begin every transaction IMMEDIATE under a busy timeout, and postgres
writers take a transaction-scoped advisory lock under lock_timeout. The
UNIQUE (log_date, sequence) constraint backs the check-and-append.

	s := sqlstore.New(conn, db.SQLite, 2*time.Second)
	claim, err := s.Claim(ctx, store.ClaimRequest{Ticket: t, Room: "Room 1"})

Snapshot is a single SELECT and never enters the write path.
*/
package sqlstore
