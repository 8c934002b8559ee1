// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/quickly-call/models"
	"github.com/danielhkuo/quickly-call/store"
	"github.com/danielhkuo/quickly-call/store/storetest"
	"github.com/danielhkuo/quickly-call/testutil"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := New(client, "queue", 2*time.Second)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, _ := newTestStore(t)
		return s
	})
}

func TestSnapshot_CorruptEntry(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.ResetForNewDay(ctx, testutil.TestDate); err != nil {
		t.Fatalf("ResetForNewDay() error = %v", err)
	}
	if err := s.client.RPush(ctx, s.logKey, "{not json").Err(); err != nil {
		t.Fatal(err)
	}

	log, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() must not fail on corruption, got %v", err)
	}
	if len(log.Claims) != 0 {
		t.Errorf("expected empty log, got %+v", log.Claims)
	}
}

func TestClaim_Unavailable(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	_, err := s.Claim(context.Background(), store.ClaimRequest{
		Ticket: models.Ticket{Date: testutil.TestDate, Sequence: 1},
		Room:   "Room 1",
	})
	if !errors.Is(err, store.ErrUnavailable) && !errors.Is(err, store.ErrBusy) {
		t.Errorf("expected ErrUnavailable or ErrBusy, got %v", err)
	}
}

func TestSnapshot_Version(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for seq := 1; seq <= 3; seq++ {
		_, err := s.Claim(ctx, store.ClaimRequest{
			Ticket: models.Ticket{Date: testutil.TestDate, Sequence: seq},
			Room:   "Room 1",
			At:     time.Now(),
		})
		if err != nil {
			t.Fatalf("Claim() error = %v", err)
		}
	}

	log, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if log.Version != 3 {
		t.Errorf("expected version 3, got %d", log.Version)
	}
}

func TestDateMismatch_NeverSucceeds(t *testing.T) {
	ctx := context.Background()

	t.Run("log rolled over to the ticket's date", func(t *testing.T) {
		s, _ := newTestStore(t)
		if err := s.ResetForNewDay(ctx, "2025-03-15"); err != nil {
			t.Fatalf("ResetForNewDay() error = %v", err)
		}
		if err := s.dateMismatch(ctx, "2025-03-15"); !errors.Is(err, store.ErrDateMismatch) {
			t.Errorf("expected ErrDateMismatch, got %v", err)
		}
	})

	t.Run("log date unreadable", func(t *testing.T) {
		s, mr := newTestStore(t)
		mr.Close()
		if err := s.dateMismatch(ctx, testutil.TestDate); !errors.Is(err, store.ErrDateMismatch) {
			t.Errorf("expected ErrDateMismatch, got %v", err)
		}
	})

	t.Run("claim against an older log", func(t *testing.T) {
		s, _ := newTestStore(t)
		if err := s.ResetForNewDay(ctx, testutil.TestDate); err != nil {
			t.Fatalf("ResetForNewDay() error = %v", err)
		}
		c, err := s.Claim(ctx, store.ClaimRequest{
			Ticket: models.Ticket{Date: "2025-03-15", Sequence: 1},
			Room:   "Room 1",
		})
		if !errors.Is(err, store.ErrDateMismatch) {
			t.Errorf("expected ErrDateMismatch, got %v", err)
		}
		if c.ID != "" {
			t.Errorf("expected no claim, got %+v", c)
		}
	})
}
