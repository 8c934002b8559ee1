// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package issuance records issued tickets.

The ledger is the issuance universe: rooms read it to find tickets that are
waiting, and the sequence allocator counts it to recover after a restart.

	ledger := issuance.NewLedger(conn)
	err := ledger.Record(ctx, models.IssuedTicket{Ticket: t, Name: "Ada"})
	n, err := ledger.CountIssued(ctx, "2025-03-14")
	tickets, err := ledger.ListIssued(ctx, "2025-03-14")

Record returns ErrDuplicate when (date, sequence) already exists; read and
write failures wrap store.ErrUnavailable.
*/
package issuance
