// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sequence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/danielhkuo/quickly-call/issuance"
	"github.com/danielhkuo/quickly-call/models"
	"github.com/danielhkuo/quickly-call/retry"
	"github.com/danielhkuo/quickly-call/store"
)

// maxResync bounds how many numbers Next skips past other stations.
const maxResync = 16

type Ledger interface {
	Record(ctx context.Context, t models.IssuedTicket) error
	CountIssued(ctx context.Context, date string) (int, error)
}

// Resetter clears the claim log on rollover.
type Resetter interface {
	ResetForNewDay(ctx context.Context, date string) error
}

type Options struct {
	Now   func() time.Time
	Retry retry.Policy
}

// Allocator hands out ticket numbers for the current day.
//
// The allocator is the one actor that resets the claim log on rollover. A
// number is returned only after its ledger record is committed, and the
// in-memory counter is recovered from the ledger on start.
type Allocator struct {
	ledger   Ledger
	resetter Resetter
	now      func() time.Time
	policy   retry.Policy

	mu   sync.Mutex
	date string
	seq  int
}

// New recovers today's sequence from the ledger.
func New(ctx context.Context, ledger Ledger, resetter Resetter, opts Options) (*Allocator, error) {
	a := &Allocator{
		ledger:   ledger,
		resetter: resetter,
		now:      opts.Now,
		policy:   opts.Retry,
	}
	if a.now == nil {
		a.now = time.Now
	}

	today := models.DateOf(a.now())
	if err := a.rollover(ctx, today); err != nil {
		return nil, err
	}

	count, err := a.count(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("recover sequence: %w", err)
	}
	a.seq = count

	slog.Info("sequence recovered", "ticket_date", today, "sequence", count)
	return a, nil
}

// Next issues the next ticket of the day to c.
func (a *Allocator) Next(ctx context.Context, c models.Candidate) (models.IssuedTicket, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	today := models.DateOf(a.now())
	if today < a.date {
		// Clock stepped back across midnight; tickets for an earlier day
		// could never be claimed.
		return models.IssuedTicket{}, fmt.Errorf("issue ticket: %w: clock reads %s, issuing for %s", store.ErrStaleDate, today, a.date)
	}
	if today != a.date {
		if err := a.rollover(ctx, today); err != nil {
			return models.IssuedTicket{}, err
		}
		a.seq = 0
	}

	for attempt := 0; attempt < maxResync; attempt++ {
		t := models.IssuedTicket{
			Ticket:   models.Ticket{Date: today, Sequence: a.seq + 1},
			Name:     c.Name,
			Contact:  c.Contact,
			IssuedAt: a.now(),
		}

		_, err := retry.Do(ctx, a.policy, "record ticket", func() (struct{}, error) {
			return struct{}{}, a.ledger.Record(ctx, t)
		})
		if err == nil {
			a.seq = t.Ticket.Sequence
			return t, nil
		}
		if !errors.Is(err, issuance.ErrDuplicate) {
			return models.IssuedTicket{}, fmt.Errorf("issue %s: %w", t.Ticket, err)
		}

		// Another station (or a lost reply) already holds this number.
		count, err := a.count(ctx, today)
		if err != nil {
			return models.IssuedTicket{}, err
		}
		slog.Warn("ticket number taken, resynchronising", "ticket_date", today, "sequence", t.Ticket.Sequence, "issued", count)
		a.seq = max(count, t.Ticket.Sequence)
	}

	return models.IssuedTicket{}, fmt.Errorf("issue ticket: gave up after %d conflicting numbers", maxResync)
}

// current returns the remembered date and last issued sequence.
func (a *Allocator) current() models.Ticket {
	a.mu.Lock()
	defer a.mu.Unlock()
	return models.Ticket{Date: a.date, Sequence: a.seq}
}

func (a *Allocator) rollover(ctx context.Context, date string) error {
	_, err := retry.Do(ctx, a.policy, "reset claim log", func() (struct{}, error) {
		return struct{}{}, a.resetter.ResetForNewDay(ctx, date)
	})
	if err != nil {
		return fmt.Errorf("roll over to %s: %w", date, err)
	}

	if a.date != "" {
		slog.Info("date rollover", "previous_date", a.date, "ticket_date", date)
	}
	a.date = date
	return nil
}

func (a *Allocator) count(ctx context.Context, date string) (int, error) {
	return retry.Do(ctx, a.policy, "count issued", func() (int, error) {
		return a.ledger.CountIssued(ctx, date)
	})
}
