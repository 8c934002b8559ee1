// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package render

import (
	"log/slog"
	"sync"

	"github.com/danielhkuo/quickly-call/models"
)

// Log renders room views and the aggregate display as structured log lines
// and remembers each room's current emphasis.
type Log struct {
	logger *slog.Logger

	mu       sync.Mutex
	emphasis map[string]models.Emphasis
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger, emphasis: make(map[string]models.Emphasis)}
}

func (l *Log) RenderRoom(v models.RoomView) {
	attrs := []any{"room", v.Room, "open", v.Open, "waiting", v.Waiting}
	if v.Active != nil {
		attrs = append(attrs, "ticket", v.Active.Ticket.String(), "name", v.Active.Name)
	}
	l.logger.Info("room view", attrs...)
}

func (l *Log) Render(snap models.DisplaySnapshot) {
	l.logger.Debug("display", "ticket_date", snap.Date, "rooms", len(snap.Rooms), "order", snap.Order)
}

func (l *Log) Notify(t models.Transition) {
	attrs := []any{"room", t.Room, "ticket", t.Claim.Ticket.String(), "name", t.Claim.Name}
	if t.Old != nil {
		attrs = append(attrs, "previous", t.Old.String())
	}
	l.logger.Info("now serving", attrs...)
}

func (l *Log) Emphasize(room string, e models.Emphasis) {
	l.mu.Lock()
	l.emphasis[room] = e
	l.mu.Unlock()
	l.logger.Debug("emphasis", "room", room, "state", string(e))
}

// Emphasis returns the last emphasis set for room, normal if none.
func (l *Log) Emphasis(room string) models.Emphasis {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.emphasis[room]; ok {
		return e
	}
	return models.EmphasisNormal
}
