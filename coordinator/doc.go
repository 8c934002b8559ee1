// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package coordinator implements the per-room call coordinator.

Each Room owns its session state: whether it is open and which claim, if
any, it is serving. Rooms never talk to each other; the claim log in the
store is the only thing they share.

# Operations

	room := coordinator.New("Room 1", st, ledger, renderer, coordinator.Options{})

	resp, err := room.CallNext(ctx) // claim the earliest unserved ticket
	claim, err := room.Recall()     // re-announce, no new claim
	err = room.Wait()               // release locally, ticket stays served
	err = room.Close()
	err = room.Open()               // always reopens waiting

CallNext reports an empty queue with models.OutcomeEmpty. Operations outside
their valid state return a *TransitionError matching ErrInvalidTransition and
leave the room unchanged.

# Eligibility

A ticket is eligible when it was issued today and never appeared in the claim
log. A ticket released by Wait is not eligible again. Lost races surface as
store.ErrAlreadyClaimed and the room moves on to the next eligible ticket.

# Rollover

Every operation checks the room's own clock. On a date change the active
claim and waiting count are dropped; the claim log itself is reset by the
sequence allocator, never by a room.
*/
package coordinator
