// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package sequence allocates daily ticket numbers.

	alloc, err := sequence.New(ctx, ledger, queueStore, sequence.Options{})
	ticket, err := alloc.Next(ctx, models.Candidate{Name: "Ada"})

Numbers start at 1 each day. When the wall-clock date changes, Next resets
the claim log for the new date before persisting the first ticket. On start
the counter is rebuilt by counting today's ledger records, so a ticket
persisted just before a crash is never reissued.
*/
package sequence
