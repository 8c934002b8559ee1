// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package storetest checks a store.Store implementation against the claim
// log contract. Backends call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-call/models"
	"github.com/danielhkuo/quickly-call/store"
)

const (
	dayOne = "2025-03-14"
	dayTwo = "2025-03-15"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run executes the contract suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("EmptySnapshot", func(t *testing.T) { testEmptySnapshot(t, newStore(t)) })
	t.Run("ClaimAppends", func(t *testing.T) { testClaimAppends(t, newStore(t)) })
	t.Run("ClaimOnce", func(t *testing.T) { testClaimOnce(t, newStore(t)) })
	t.Run("ConcurrentClaims", func(t *testing.T) { testConcurrentClaims(t, newStore(t)) })
	t.Run("Reset", func(t *testing.T) { testReset(t, newStore(t)) })
	t.Run("ResetNeverMovesBack", func(t *testing.T) { testResetNeverMovesBack(t, newStore(t)) })
	t.Run("DateMismatch", func(t *testing.T) { testDateMismatch(t, newStore(t)) })
	t.Run("InvalidRequest", func(t *testing.T) { testInvalidRequest(t, newStore(t)) })
}

func claimReq(date string, seq int, room string) store.ClaimRequest {
	return store.ClaimRequest{
		Ticket: models.Ticket{Date: date, Sequence: seq},
		Room:   room,
		Name:   fmt.Sprintf("Candidate %d", seq),
		At:     time.Now(),
	}
}

func testEmptySnapshot(t *testing.T, s store.Store) {
	log, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(log.Claims) != 0 {
		t.Errorf("expected empty log, got %d claims", len(log.Claims))
	}
}

func testClaimAppends(t *testing.T, s store.Store) {
	ctx := context.Background()

	first, err := s.Claim(ctx, claimReq(dayOne, 1, "Room 1"))
	if err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if first.ID == "" {
		t.Error("expected claim ID")
	}
	if first.Position != 1 {
		t.Errorf("expected position 1, got %d", first.Position)
	}

	if _, err := s.Claim(ctx, claimReq(dayOne, 2, "Room 2")); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	log, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if log.Date != dayOne {
		t.Errorf("expected log date %s, got %s", dayOne, log.Date)
	}
	if len(log.Claims) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(log.Claims))
	}
	if log.Claims[0].Ticket.Sequence != 1 || log.Claims[1].Ticket.Sequence != 2 {
		t.Errorf("claims out of order: %+v", log.Claims)
	}
	if log.Claims[1].Room != "Room 2" || log.Claims[1].Name != "Candidate 2" {
		t.Errorf("unexpected second claim: %+v", log.Claims[1])
	}
}

func testClaimOnce(t *testing.T, s store.Store) {
	ctx := context.Background()

	if _, err := s.Claim(ctx, claimReq(dayOne, 12, "Room 1")); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	for _, room := range []string{"Room 1", "Room 2"} {
		_, err := s.Claim(ctx, claimReq(dayOne, 12, room))
		if !errors.Is(err, store.ErrAlreadyClaimed) {
			t.Errorf("second claim by %s: expected ErrAlreadyClaimed, got %v", room, err)
		}
	}

	log, _ := s.Snapshot(ctx)
	if len(log.Claims) != 1 {
		t.Errorf("expected 1 claim, got %d", len(log.Claims))
	}
}

// testConcurrentClaims races several rooms on the same tickets; each ticket
// must be won exactly once.
func testConcurrentClaims(t *testing.T, s store.Store) {
	ctx := context.Background()
	const rooms = 6
	const tickets = 5

	var wins [tickets + 1]atomic.Int32
	var wg sync.WaitGroup

	for r := 0; r < rooms; r++ {
		wg.Add(1)
		go func(room string) {
			defer wg.Done()
			for seq := 1; seq <= tickets; seq++ {
				for {
					_, err := s.Claim(ctx, claimReq(dayOne, seq, room))
					if errors.Is(err, store.ErrBusy) {
						continue
					}
					if err == nil {
						wins[seq].Add(1)
					} else if !errors.Is(err, store.ErrAlreadyClaimed) {
						t.Errorf("Claim() unexpected error = %v", err)
					}
					break
				}
			}
		}(fmt.Sprintf("Room %d", r+1))
	}
	wg.Wait()

	for seq := 1; seq <= tickets; seq++ {
		if n := wins[seq].Load(); n != 1 {
			t.Errorf("ticket %d claimed %d times, want 1", seq, n)
		}
	}

	log, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(log.Claims) != tickets {
		t.Errorf("expected %d claims, got %d", tickets, len(log.Claims))
	}
	for i, c := range log.Claims {
		if c.Position != i+1 {
			t.Errorf("claim %d has position %d", i, c.Position)
		}
	}
}

func testReset(t *testing.T, s store.Store) {
	ctx := context.Background()

	if _, err := s.Claim(ctx, claimReq(dayOne, 1, "Room 1")); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	// Same date: no-op
	if err := s.ResetForNewDay(ctx, dayOne); err != nil {
		t.Fatalf("ResetForNewDay() error = %v", err)
	}
	log, _ := s.Snapshot(ctx)
	if len(log.Claims) != 1 {
		t.Fatalf("same-day reset must keep the log, got %d claims", len(log.Claims))
	}

	if err := s.ResetForNewDay(ctx, dayTwo); err != nil {
		t.Fatalf("ResetForNewDay() error = %v", err)
	}
	log, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if log.Date != dayTwo {
		t.Errorf("expected log date %s, got %s", dayTwo, log.Date)
	}
	if len(log.Claims) != 0 {
		t.Errorf("expected empty log after rollover, got %d claims", len(log.Claims))
	}

	// Sequence 1 of the new day is a different ticket
	c, err := s.Claim(ctx, claimReq(dayTwo, 1, "Room 1"))
	if err != nil {
		t.Fatalf("Claim() after reset error = %v", err)
	}
	if c.Position != 1 {
		t.Errorf("expected position 1 after reset, got %d", c.Position)
	}
}

// testResetNeverMovesBack covers a station whose clock lags a day: its reset
// must not clear today's claims, or they become eligible again.
func testResetNeverMovesBack(t *testing.T, s store.Store) {
	ctx := context.Background()

	if err := s.ResetForNewDay(ctx, dayTwo); err != nil {
		t.Fatalf("ResetForNewDay() error = %v", err)
	}
	if _, err := s.Claim(ctx, claimReq(dayTwo, 1, "Room 1")); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	err := s.ResetForNewDay(ctx, dayOne)
	if !errors.Is(err, store.ErrStaleDate) {
		t.Errorf("reset to earlier date: expected ErrStaleDate, got %v", err)
	}

	log, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if log.Date != dayTwo || len(log.Claims) != 1 {
		t.Fatalf("log changed by earlier-date reset: date=%s claims=%d", log.Date, len(log.Claims))
	}

	if err := s.ResetForNewDay(ctx, dayTwo); err != nil {
		t.Fatalf("ResetForNewDay() error = %v", err)
	}
	_, err = s.Claim(ctx, claimReq(dayTwo, 1, "Room 2"))
	if !errors.Is(err, store.ErrAlreadyClaimed) {
		t.Errorf("ticket %s#1 served again: expected ErrAlreadyClaimed, got %v", dayTwo, err)
	}
}

func testDateMismatch(t *testing.T, s store.Store) {
	ctx := context.Background()

	if err := s.ResetForNewDay(ctx, dayTwo); err != nil {
		t.Fatalf("ResetForNewDay() error = %v", err)
	}
	_, err := s.Claim(ctx, claimReq(dayOne, 3, "Room 1"))
	if !errors.Is(err, store.ErrDateMismatch) {
		t.Errorf("expected ErrDateMismatch, got %v", err)
	}
}

func testInvalidRequest(t *testing.T, s store.Store) {
	ctx := context.Background()

	tests := []struct {
		name string
		req  store.ClaimRequest
	}{
		{"no room", claimReq(dayOne, 1, "")},
		{"zero sequence", claimReq(dayOne, 0, "Room 1")},
		{"bad date", claimReq("14/03/2025", 1, "Room 1")},
	}
	for _, tt := range tests {
		if _, err := s.Claim(ctx, tt.req); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}

	log, _ := s.Snapshot(ctx)
	if len(log.Claims) != 0 {
		t.Errorf("invalid requests must not append, got %d claims", len(log.Claims))
	}
}
