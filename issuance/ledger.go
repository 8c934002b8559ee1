// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package issuance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/quickly-call/db"
	"github.com/danielhkuo/quickly-call/models"
	"github.com/danielhkuo/quickly-call/store"
)

// ErrDuplicate means the ticket number was already recorded for its date.
var ErrDuplicate = errors.New("ticket already issued")

// Ledger is the durable record of issued tickets. It is the only writer of
// the ticket table.
type Ledger struct {
	db *sql.DB
}

func NewLedger(conn *sql.DB) *Ledger {
	return &Ledger{db: conn}
}

// Record persists an issued ticket. It returns only once the row is committed.
func (l *Ledger) Record(ctx context.Context, t models.IssuedTicket) error {
	if t.IssuedAt.IsZero() {
		t.IssuedAt = time.Now()
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO ticket (ticket_date, sequence, name, contact, issued_at)
		VALUES ($1, $2, $3, $4, $5)
	`, t.Ticket.Date, t.Ticket.Sequence, t.Name, t.Contact, t.IssuedAt.UnixNano())
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicate, t.Ticket)
	}
	if err != nil {
		return unavailable("record ticket", err)
	}
	return nil
}

// CountIssued returns how many tickets were issued on date.
func (l *Ledger) CountIssued(ctx context.Context, date string) (int, error) {
	var count int
	err := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM ticket WHERE ticket_date = $1
	`, date).Scan(&count)
	if err != nil {
		return 0, unavailable("count tickets", err)
	}
	return count, nil
}

// ListIssued returns the tickets issued on date in sequence order.
func (l *Ledger) ListIssued(ctx context.Context, date string) ([]models.IssuedTicket, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT sequence, name, contact, issued_at
		FROM ticket
		WHERE ticket_date = $1
		ORDER BY sequence
	`, date)
	if err != nil {
		return nil, unavailable("list tickets", err)
	}
	defer rows.Close()

	tickets := []models.IssuedTicket{}
	for rows.Next() {
		var t models.IssuedTicket
		var issuedAt int64
		if err := rows.Scan(&t.Ticket.Sequence, &t.Name, &t.Contact, &issuedAt); err != nil {
			return nil, unavailable("scan ticket", err)
		}
		t.Ticket.Date = date
		t.IssuedAt = time.Unix(0, issuedAt)
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list tickets", err)
	}

	return tickets, nil
}

func unavailable(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, store.ErrUnavailable, err)
}
