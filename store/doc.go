// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store defines the queue-state store: the append-only claim log
shared by every room and display.

# Contract

	Claim(ctx, req)            // check-and-append, atomic across processes
	Snapshot(ctx)              // immutable copy, never torn
	ResetForNewDay(ctx, date)  // idempotent per date, forward only
	Close()

# Errors

  - ErrAlreadyClaimed: the ticket is already in the log (nothing to call)
  - ErrBusy: serialized access not acquired within the claim timeout
  - ErrUnavailable: the durable store cannot be reached
  - ErrCorrupt: stored content failed Validate
  - ErrStaleDate: a reset named a date earlier than the log's
  - ErrDateMismatch: the ticket belongs to another date than the log

# Backends

  - store/sqlstore: sqlite or postgres
  - store/filestore: one JSON document guarded by an advisory lock
  - store/redisstore: Redis with a Lua arbitration script

Readers fail closed on corruption: Snapshot returns an empty log and logs a
diagnostic instead of an error.
*/
package store
