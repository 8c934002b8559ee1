// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package display

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danielhkuo/quickly-call/models"
)

// DefaultInterval bounds how stale a display may be.
const DefaultInterval = 3 * time.Second

// Source is the read side of the claim store.
type Source interface {
	Snapshot(ctx context.Context) (models.ClaimLog, error)
}

// Renderer draws the aggregate display. It makes no decisions of its own.
type Renderer interface {
	Render(snap models.DisplaySnapshot)
	Notify(t models.Transition)
}

// Notifier starts the cue sequence for a transition without blocking.
type Notifier interface {
	Trigger(ctx context.Context, t models.Transition)
}

type Options struct {
	Now      func() time.Time
	Interval time.Duration
}

// Aggregator polls the claim log and reports per-room changes.
type Aggregator struct {
	source   Source
	renderer Renderer
	notifier Notifier
	now      func() time.Time
	interval time.Duration

	latest atomic.Pointer[models.DisplaySnapshot]

	mu       sync.Mutex
	date     string
	previous map[string]models.Ticket
}

func New(source Source, renderer Renderer, notifier Notifier, opts Options) *Aggregator {
	a := &Aggregator{
		source:   source,
		renderer: renderer,
		notifier: notifier,
		now:      opts.Now,
		interval: opts.Interval,
		previous: make(map[string]models.Ticket),
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.interval <= 0 {
		a.interval = DefaultInterval
	}
	return a
}

// Poll reads the store once, publishes the reduced snapshot, and returns the
// transitions since the previous poll.
//
// An unreadable store or a log from another day shows as no rooms active.
// Rooms missing from a degraded read keep their previous value, so recovery
// does not replay cues.
func (a *Aggregator) Poll(ctx context.Context) []models.Transition {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	today := models.DateOf(now)
	if today != a.date {
		if a.date != "" {
			slog.Info("display observed date rollover", "previous_date", a.date, "ticket_date", today)
		}
		a.date = today
		a.previous = make(map[string]models.Ticket)
	}

	log, err := a.source.Snapshot(ctx)
	if err != nil {
		slog.Warn("claim log unavailable, showing no rooms", "error", err)
		log = models.ClaimLog{}
	}
	if log.Date != today {
		log = models.ClaimLog{}
	}

	snap := Reduce(log)
	snap.Date = today
	snap.TakenAt = now

	var transitions []models.Transition
	for _, room := range snap.Order {
		claim := snap.Rooms[room]
		prev, seen := a.previous[room]
		switch {
		case !seen:
			transitions = append(transitions, models.Transition{Room: room, Claim: claim})
		case prev != claim.Ticket:
			old := prev
			transitions = append(transitions, models.Transition{Room: room, Old: &old, Claim: claim})
		}
		a.previous[room] = claim.Ticket
	}

	a.latest.Store(&snap)
	if a.renderer != nil {
		a.renderer.Render(snap)
	}
	for _, t := range transitions {
		slog.Info("display transition", "room", t.Room, "ticket_date", t.Claim.Ticket.Date, "sequence", t.Claim.Ticket.Sequence)
		if a.renderer != nil {
			a.renderer.Notify(t)
		}
		if a.notifier != nil {
			a.notifier.Trigger(ctx, t)
		}
	}

	return transitions
}

// Latest returns the snapshot published by the last poll.
func (a *Aggregator) Latest() models.DisplaySnapshot {
	if snap := a.latest.Load(); snap != nil {
		return *snap
	}
	return models.DisplaySnapshot{Rooms: map[string]models.Claim{}, Order: []string{}}
}

// Run polls immediately and then on every interval until ctx is done.
func (a *Aggregator) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Poll(ctx)
		}
	}
}

// Reduce keeps the latest claim per room and orders rooms by recency.
// Equal timestamps resolve to the later log entry.
func Reduce(log models.ClaimLog) models.DisplaySnapshot {
	snap := models.DisplaySnapshot{
		Date:  log.Date,
		Rooms: make(map[string]models.Claim),
		Order: []string{},
	}

	index := make(map[string]int)
	for i, c := range log.Claims {
		if cur, ok := snap.Rooms[c.Room]; ok && c.ClaimedAt.Before(cur.ClaimedAt) {
			continue
		}
		if _, ok := snap.Rooms[c.Room]; !ok {
			snap.Order = append(snap.Order, c.Room)
		}
		snap.Rooms[c.Room] = c
		index[c.Room] = i
	}

	sort.SliceStable(snap.Order, func(i, j int) bool {
		a, b := snap.Rooms[snap.Order[i]], snap.Rooms[snap.Order[j]]
		if !a.ClaimedAt.Equal(b.ClaimedAt) {
			return a.ClaimedAt.After(b.ClaimedAt)
		}
		return index[snap.Order[i]] > index[snap.Order[j]]
	})
	return snap
}
