// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sequence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-call/db"
	"github.com/danielhkuo/quickly-call/issuance"
	"github.com/danielhkuo/quickly-call/models"
	"github.com/danielhkuo/quickly-call/retry"
	"github.com/danielhkuo/quickly-call/store"
	"github.com/danielhkuo/quickly-call/store/sqlstore"
	"github.com/danielhkuo/quickly-call/testutil"
)

var testPolicy = retry.Policy{MaxTries: 3, Initial: time.Millisecond, Max: 2 * time.Millisecond}

func TestNext_StrictlyIncreasing(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()

	clock := testutil.NewClock(t, testutil.TestDate)
	alloc, err := New(context.Background(), issuance.NewLedger(conn), sqlstore.New(conn, db.SQLite, time.Second),
		Options{Now: clock.Now, Retry: testPolicy})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for want := 1; want <= 5; want++ {
		got, err := alloc.Next(context.Background(), models.Candidate{Name: "Ada"})
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if got.Ticket.Sequence != want || got.Ticket.Date != testutil.TestDate {
			t.Errorf("Next() = %s, want %s#%d", got.Ticket, testutil.TestDate, want)
		}
		clock.Advance(time.Minute)
	}
}

func TestNext_RolloverStartsAtOne(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()

	ctx := context.Background()
	clock := testutil.NewClock(t, testutil.TestDate)
	queue := sqlstore.New(conn, db.SQLite, time.Second)
	alloc, err := New(ctx, issuance.NewLedger(conn), queue, Options{Now: clock.Now, Retry: testPolicy})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var last models.IssuedTicket
	for i := 0; i < 37; i++ {
		if last, err = alloc.Next(ctx, models.Candidate{}); err != nil {
			t.Fatalf("Next() error = %v", err)
		}
	}
	if last.Ticket.Sequence != 37 {
		t.Fatalf("expected day one to end at 37, got %d", last.Ticket.Sequence)
	}
	if _, err := queue.Claim(ctx, store.ClaimRequest{Ticket: last.Ticket, Room: "Room 1", At: clock.Now()}); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	clock.Advance(24 * time.Hour)

	first, err := alloc.Next(ctx, models.Candidate{})
	if err != nil {
		t.Fatalf("Next() after rollover error = %v", err)
	}
	if first.Ticket.Sequence != 1 || first.Ticket.Date != "2025-03-15" {
		t.Errorf("expected 2025-03-15#1, got %s", first.Ticket)
	}

	log, err := queue.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if log.Date != "2025-03-15" || len(log.Claims) != 0 {
		t.Errorf("expected empty claim log for 2025-03-15, got %+v", log)
	}
}

func TestNew_RecoversAfterCrash(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()

	// Tickets 1-5 were persisted; the process died before returning 5
	for seq := 1; seq <= 5; seq++ {
		testutil.IssueTestTicket(t, conn, testutil.TestDate, seq, "")
	}

	clock := testutil.NewClock(t, testutil.TestDate)
	alloc, err := New(context.Background(), issuance.NewLedger(conn), sqlstore.New(conn, db.SQLite, time.Second),
		Options{Now: clock.Now, Retry: testPolicy})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, err := alloc.Next(context.Background(), models.Candidate{})
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if got.Ticket.Sequence != 6 {
		t.Errorf("expected 6 after restart, got %d", got.Ticket.Sequence)
	}
}

func TestNext_TwoStationsNeverShareNumbers(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()

	ctx := context.Background()
	clock := testutil.NewClock(t, testutil.TestDate)
	ledger := issuance.NewLedger(conn)
	queue := sqlstore.New(conn, db.SQLite, 2*time.Second)

	stations := make([]*Allocator, 2)
	for i := range stations {
		a, err := New(ctx, ledger, queue, Options{Now: clock.Now, Retry: retry.DefaultPolicy()})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		stations[i] = a
	}

	const perStation = 15
	var mu sync.Mutex
	seen := make(map[int]bool)
	var wg sync.WaitGroup

	for _, a := range stations {
		wg.Add(1)
		go func(a *Allocator) {
			defer wg.Done()
			for i := 0; i < perStation; i++ {
				got, err := a.Next(ctx, models.Candidate{})
				if err != nil {
					t.Errorf("Next() error = %v", err)
					return
				}
				mu.Lock()
				if seen[got.Ticket.Sequence] {
					t.Errorf("sequence %d issued twice", got.Ticket.Sequence)
				}
				seen[got.Ticket.Sequence] = true
				mu.Unlock()
			}
		}(a)
	}
	wg.Wait()

	count, err := ledger.CountIssued(ctx, testutil.TestDate)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2*perStation {
		t.Errorf("expected %d tickets, got %d", 2*perStation, count)
	}
}

func TestNext_ClockSteppedBack(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()

	ctx := context.Background()
	clock := testutil.NewClock(t, testutil.TestDate)
	queue := sqlstore.New(conn, db.SQLite, time.Second)
	alloc, err := New(ctx, issuance.NewLedger(conn), queue, Options{Now: clock.Now, Retry: testPolicy})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	clock.Advance(24 * time.Hour)
	issued, err := alloc.Next(ctx, models.Candidate{Name: "Ada"})
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if _, err := queue.Claim(ctx, store.ClaimRequest{Ticket: issued.Ticket, Room: "Room 1", At: clock.Now()}); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	clock.Advance(-2 * time.Hour)
	_, err = alloc.Next(ctx, models.Candidate{Name: "Grace"})
	if !errors.Is(err, store.ErrStaleDate) {
		t.Errorf("expected ErrStaleDate, got %v", err)
	}
	if cur := alloc.current(); cur.Date != issued.Ticket.Date || cur.Sequence != 1 {
		t.Errorf("current() = %s, want %s", cur, issued.Ticket)
	}

	log, err := queue.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if log.Date != issued.Ticket.Date || len(log.Claims) != 1 {
		t.Errorf("claim log changed: date=%s claims=%d", log.Date, len(log.Claims))
	}
}

func TestNew_LaggingStationRefuses(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()

	ctx := context.Background()
	queue := sqlstore.New(conn, db.SQLite, time.Second)
	if err := queue.ResetForNewDay(ctx, "2025-03-15"); err != nil {
		t.Fatalf("ResetForNewDay() error = %v", err)
	}

	clock := testutil.NewClock(t, testutil.TestDate)
	_, err := New(ctx, issuance.NewLedger(conn), queue, Options{Now: clock.Now, Retry: testPolicy})
	if !errors.Is(err, store.ErrStaleDate) {
		t.Errorf("expected ErrStaleDate, got %v", err)
	}
}

type failingLedger struct {
	count int
}

func (f *failingLedger) Record(ctx context.Context, t models.IssuedTicket) error {
	return store.ErrUnavailable
}

func (f *failingLedger) CountIssued(ctx context.Context, date string) (int, error) {
	return f.count, nil
}

type nopResetter struct{}

func (nopResetter) ResetForNewDay(ctx context.Context, date string) error { return nil }

func TestNext_StorageUnavailable(t *testing.T) {
	clock := testutil.NewClock(t, testutil.TestDate)
	alloc, err := New(context.Background(), &failingLedger{count: 3}, nopResetter{}, Options{Now: clock.Now, Retry: testPolicy})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = alloc.Next(context.Background(), models.Candidate{})
	if !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}

	// Nothing was handed out
	if cur := alloc.current(); cur.Sequence != 3 {
		t.Errorf("expected sequence to stay at 3, got %d", cur.Sequence)
	}
}
