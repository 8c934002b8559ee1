// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/danielhkuo/quickly-call/models"
	"github.com/danielhkuo/quickly-call/retry"
	"github.com/danielhkuo/quickly-call/store"
)

// DefaultRefreshInterval is how often an open room reloads issued tickets.
const DefaultRefreshInterval = 3 * time.Second

// Operator-facing reasons
const (
	ReasonClosed        = "This room is closed"
	ReasonNothingToCall = "No more tokens to call"
	ReasonNoRecall      = "No token to recall"
	ReasonAlreadyOpen   = "Room is already open"
	ReasonAlreadyClosed = "Room is already closed"
)

// ErrInvalidTransition matches every TransitionError.
var ErrInvalidTransition = errors.New("invalid transition")

// TransitionError rejects an operation attempted outside its valid state.
type TransitionError struct {
	Op     string
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// TicketSource lists the issuance universe for a date.
type TicketSource interface {
	ListIssued(ctx context.Context, date string) ([]models.IssuedTicket, error)
}

// Renderer receives the room's live view after every change.
type Renderer interface {
	RenderRoom(view models.RoomView)
}

type Options struct {
	Now             func() time.Time
	Retry           retry.Policy
	RefreshInterval time.Duration
}

// Room is the call coordinator for one room. All of its session state lives
// here; rooms coordinate only through the store.
type Room struct {
	name     string
	store    store.Store
	tickets  TicketSource
	renderer Renderer
	now      func() time.Time
	policy   retry.Policy
	interval time.Duration

	mu      sync.Mutex
	open    bool
	active  *models.Claim
	date    string
	waiting int
}

// New returns an open room with no active claim.
func New(name string, st store.Store, tickets TicketSource, renderer Renderer, opts Options) *Room {
	r := &Room{
		name:     name,
		store:    st,
		tickets:  tickets,
		renderer: renderer,
		now:      opts.Now,
		policy:   opts.Retry,
		interval: opts.RefreshInterval,
		open:     true,
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.interval <= 0 {
		r.interval = DefaultRefreshInterval
	}
	r.date = models.DateOf(r.now())
	return r
}

func (r *Room) Name() string {
	return r.name
}

// CallNext claims the earliest issued ticket nobody has been served with.
// An empty queue is reported through the response outcome, not as an error.
func (r *Room) CallNext(ctx context.Context) (models.CallResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.open {
		return models.CallResponse{}, &TransitionError{Op: "call", Reason: ReasonClosed}
	}
	today := r.observeDate()

	eligible, err := r.eligible(ctx, today)
	if err != nil {
		return models.CallResponse{}, err
	}

	for i, t := range eligible {
		req := store.ClaimRequest{
			Ticket: t.Ticket,
			Room:   r.name,
			Name:   t.Name,
			At:     r.now(),
		}
		claim, err := retry.Do(ctx, r.policy, "claim ticket", func() (models.Claim, error) {
			return r.store.Claim(ctx, req)
		})
		if errors.Is(err, store.ErrAlreadyClaimed) {
			// Lost the race for this ticket; the next one is still ours to try.
			slog.Debug("ticket taken by another room", "room", r.name, "ticket", t.Ticket.String())
			continue
		}
		if err != nil {
			return models.CallResponse{}, fmt.Errorf("call %s: %w", t.Ticket, err)
		}

		r.active = &claim
		r.waiting = len(eligible) - i - 1
		slog.Info("ticket called", "room", r.name, "ticket_date", claim.Ticket.Date, "sequence", claim.Ticket.Sequence)
		r.render()
		return models.CallResponse{Outcome: models.OutcomeCalled, Claim: &claim}, nil
	}

	r.waiting = 0
	r.render()
	return models.CallResponse{Outcome: models.OutcomeEmpty, Message: ReasonNothingToCall}, nil
}

// Recall re-announces the active ticket without touching the claim log.
func (r *Room) Recall() (models.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.open {
		return models.Claim{}, &TransitionError{Op: "recall", Reason: ReasonClosed}
	}
	r.observeDate()
	if r.active == nil {
		return models.Claim{}, &TransitionError{Op: "recall", Reason: ReasonNoRecall}
	}

	r.render()
	return *r.active, nil
}

// Wait releases the active ticket locally. The ticket stays served.
func (r *Room) Wait() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.open {
		return &TransitionError{Op: "wait", Reason: ReasonClosed}
	}
	r.observeDate()
	r.active = nil
	r.render()
	return nil
}

func (r *Room) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.open {
		return &TransitionError{Op: "close", Reason: ReasonAlreadyClosed}
	}
	r.open = false
	slog.Info("room closed", "room", r.name)
	r.render()
	return nil
}

// Open reopens a closed room waiting for a claim; it never resumes a stale one.
func (r *Room) Open() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.open {
		return &TransitionError{Op: "open", Reason: ReasonAlreadyOpen}
	}
	r.open = true
	r.active = nil
	r.observeDate()
	slog.Info("room opened", "room", r.name)
	r.render()
	return nil
}

func (r *Room) View() models.RoomView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view()
}

// Refresh reloads the issued tickets and the claim log to update the waiting
// count. Closed rooms are left alone.
func (r *Room) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.open {
		return nil
	}
	today := r.observeDate()

	eligible, err := r.eligible(ctx, today)
	if err != nil {
		return err
	}
	r.waiting = len(eligible)
	r.render()
	return nil
}

// Run refreshes the room on its interval until ctx is done.
func (r *Room) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
				slog.Warn("room refresh failed", "room", r.name, "error", err)
			}
		}
	}
}

// observeDate drops session state from a previous day. Callers hold r.mu.
func (r *Room) observeDate() string {
	today := models.DateOf(r.now())
	if today != r.date {
		slog.Info("room observed date rollover", "room", r.name, "previous_date", r.date, "ticket_date", today)
		r.date = today
		r.active = nil
		r.waiting = 0
	}
	return today
}

func (r *Room) eligible(ctx context.Context, date string) ([]models.IssuedTicket, error) {
	issued, err := retry.Do(ctx, r.policy, "list issued", func() ([]models.IssuedTicket, error) {
		return r.tickets.ListIssued(ctx, date)
	})
	if err != nil {
		return nil, fmt.Errorf("list issued tickets: %w", err)
	}

	log, err := retry.Do(ctx, r.policy, "snapshot", func() (models.ClaimLog, error) {
		return r.store.Snapshot(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("read claim log: %w", err)
	}

	return Eligible(issued, log, date), nil
}

func (r *Room) view() models.RoomView {
	v := models.RoomView{Room: r.name, Open: r.open, Waiting: r.waiting}
	if r.open && r.active != nil {
		c := *r.active
		v.Active = &c
	}
	return v
}

func (r *Room) render() {
	if r.renderer != nil {
		r.renderer.RenderRoom(r.view())
	}
}

// Eligible returns the tickets issued on date that never appeared in log,
// smallest sequence first.
func Eligible(issued []models.IssuedTicket, log models.ClaimLog, date string) []models.IssuedTicket {
	served := log.Served()

	out := make([]models.IssuedTicket, 0, len(issued))
	for _, t := range issued {
		if t.Ticket.Date != date || served[t.Ticket] {
			continue
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Ticket.Sequence < out[j].Ticket.Sequence
	})
	return out
}
