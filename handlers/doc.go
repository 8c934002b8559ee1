// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Quickly Call API.

# Handler Types

  - StationHandler: ticket issuance and the record viewer
  - RoomHandler: per-room control panel
  - DisplayHandler: the aggregate display

Handlers wrap the queue core; they hold no queue state of their own.

	station := handlers.NewStationHandler(allocator, ledger, time.Now)
	rooms := handlers.NewRoomHandler(rooms, cfg)
	display := handlers.NewDisplayHandler(aggregator)

# Station

	POST /tickets              → IssueTicket (name and contact required)
	GET  /tickets?date=        → ListTickets (defaults to today)

# Rooms

	GET  /rooms                → ListRooms
	GET  /rooms/{room}         → GetRoom
	POST /rooms/{room}/call    → Call
	POST /rooms/{room}/recall  → Recall
	POST /rooms/{room}/wait    → Wait
	POST /rooms/{room}/open    → Open
	POST /rooms/{room}/close   → Close

Room controls require the X-Room-Key header (see package auth).

# Error Mapping

  - invalid transition: 409 with the operator message
  - busy or unavailable store after retries: 503, safe to retry
  - nothing to call: 200 with outcome "empty"
  - malformed input: 400
*/
package handlers
