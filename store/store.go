// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/quickly-call/models"
)

var (
	// ErrAlreadyClaimed means the ticket already appears in the claim log.
	ErrAlreadyClaimed = errors.New("ticket already claimed")
	// ErrBusy means serialized access could not be acquired within the claim timeout.
	ErrBusy = errors.New("queue state busy")
	// ErrUnavailable means the durable store could not be read or written.
	ErrUnavailable = errors.New("queue state unavailable")
	// ErrCorrupt means the stored log failed validation.
	ErrCorrupt = errors.New("queue state corrupt")
	// ErrDateMismatch means the ticket does not belong to the log's date.
	ErrDateMismatch = errors.New("ticket date does not match claim log")
	// ErrStaleDate means a reset named a date earlier than the log's.
	ErrStaleDate = errors.New("date precedes claim log")
)

// Store is the durable, concurrently accessed claim log.
//
// Claim is the only mutator besides ResetForNewDay and must be atomic across
// processes. Snapshot never takes the write path.
type Store interface {
	Claim(ctx context.Context, req ClaimRequest) (models.Claim, error)
	Snapshot(ctx context.Context) (models.ClaimLog, error)
	// ResetForNewDay clears the log and moves it to date.
	// It is a no-op when the log already belongs to date and fails with
	// ErrStaleDate when date is earlier than the log's.
	ResetForNewDay(ctx context.Context, date string) error
	Close() error
}

type ClaimRequest struct {
	Ticket models.Ticket
	Room   string
	Name   string
	At     time.Time
}

func (r ClaimRequest) Validate() error {
	if r.Room == "" {
		return fmt.Errorf("room is required")
	}
	if _, err := time.Parse(models.DateFormat, r.Ticket.Date); err != nil {
		return fmt.Errorf("invalid ticket date %q", r.Ticket.Date)
	}
	if r.Ticket.Sequence < 1 {
		return fmt.Errorf("invalid ticket sequence %d", r.Ticket.Sequence)
	}
	return nil
}

// CheckDate decides whether a claim for ticketDate may be appended to a log
// currently dated logDate. An undated log adopts the ticket's date.
func CheckDate(logDate, ticketDate string) error {
	if logDate != "" && logDate != ticketDate {
		return fmt.Errorf("%w: log %s, ticket %s", ErrDateMismatch, logDate, ticketDate)
	}
	return nil
}

// CheckRollover decides whether a log dated logDate may be reset to date.
// Dates only move forward; DateFormat orders as a string.
func CheckRollover(logDate, date string) error {
	if logDate != "" && date < logDate {
		return fmt.Errorf("%w: log %s, reset to %s", ErrStaleDate, logDate, date)
	}
	return nil
}
