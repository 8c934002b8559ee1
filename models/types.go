package models

import (
	"fmt"
	"time"
)

// DateFormat is the layout of every ticket and log date.
const DateFormat = "2006-01-02"

// Call outcomes
const (
	OutcomeCalled = "called"
	OutcomeEmpty  = "empty"
)

// Emphasis states driven by the notification scheduler
type Emphasis string

const (
	EmphasisHighlight Emphasis = "highlight"
	EmphasisNormal    Emphasis = "normal"
)

// DateOf formats t as a ticket date.
func DateOf(t time.Time) string {
	return t.Format(DateFormat)
}

// Domain types

// Ticket identifies one unit of service. Unique per (Date, Sequence).
type Ticket struct {
	Date     string `json:"date"`
	Sequence int    `json:"sequence"`
}

func (t Ticket) String() string {
	return fmt.Sprintf("%s#%d", t.Date, t.Sequence)
}

type Candidate struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// IssuedTicket is one row of the issuance ledger.
type IssuedTicket struct {
	Ticket   Ticket    `json:"ticket"`
	Name     string    `json:"name"`
	Contact  string    `json:"contact,omitempty"`
	IssuedAt time.Time `json:"issued_at"`
}

type Claim struct {
	ID        string    `json:"id"`
	Ticket    Ticket    `json:"ticket"`
	Room      string    `json:"room"`
	Name      string    `json:"name,omitempty"`
	ClaimedAt time.Time `json:"claimed_at"`
	Position  int       `json:"position"` // 1-based order within the log
}

// ClaimLog is an immutable copy of the claims for one date.
// An empty Date means no claim has ever been recorded.
type ClaimLog struct {
	Date    string  `json:"date"`
	Version int64   `json:"version"`
	Claims  []Claim `json:"log"`
}

// Served reports the tickets that ever appeared in the log.
func (l ClaimLog) Served() map[Ticket]bool {
	served := make(map[Ticket]bool, len(l.Claims))
	for _, c := range l.Claims {
		served[c.Ticket] = true
	}
	return served
}

// DisplaySnapshot is the per-room reduction of a ClaimLog.
type DisplaySnapshot struct {
	Date    string           `json:"date"`
	Rooms   map[string]Claim `json:"rooms"`
	Order   []string         `json:"order"` // most recent first
	TakenAt time.Time        `json:"taken_at"`
}

// Transition is a change in the ticket shown for a room between two polls.
// Old is nil on first appearance.
type Transition struct {
	Room  string  `json:"room"`
	Old   *Ticket `json:"old,omitempty"`
	Claim Claim   `json:"claim"`
}

// RoomView is what a room's live display shows.
type RoomView struct {
	Room    string `json:"room"`
	Open    bool   `json:"open"`
	Active  *Claim `json:"active,omitempty"`
	Waiting int    `json:"waiting"` // eligible tickets at the last refresh
}

// Request types

type IssueTicketRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// Response types

type CallResponse struct {
	Outcome string `json:"outcome"`
	Claim   *Claim `json:"claim,omitempty"`
	Message string `json:"message,omitempty"`
}

type ListTicketsResponse struct {
	Date    string         `json:"date"`
	Tickets []IssuedTicket `json:"tickets"`
}

// DisplayResponse is a snapshot plus each room's current emphasis.
type DisplayResponse struct {
	DisplaySnapshot
	Emphasis map[string]Emphasis `json:"emphasis"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
