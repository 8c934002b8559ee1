// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines domain, request, and response types.

# Domain Types

  - Ticket: (date, sequence), unique per date
  - IssuedTicket: a ledger row with the candidate's name and contact
  - Claim: binds a ticket to a room at a point in time
  - ClaimLog: immutable copy of the claims for the current date
  - DisplaySnapshot: room → latest claim, plus recency order
  - Transition: change of the ticket shown for a room
  - RoomView: what a room's live display shows

# Request Types

  - IssueTicketRequest: name, contact

# Response Types

  - CallResponse: outcome, claim, message
  - ListTicketsResponse: date, tickets
  - DisplayResponse: display snapshot plus per-room emphasis
  - ErrorResponse: error, message

# Constants

Call outcomes:

	OutcomeCalled = "called"
	OutcomeEmpty  = "empty"

Emphasis states:

	EmphasisHighlight = "highlight"
	EmphasisNormal    = "normal"

Dates use DateFormat ("2006-01-02").
*/
package models
