// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Quickly Call API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(router.Handlers{
		Station: station,
		Rooms:   rooms,
		Display: display, // optional
	})

# Endpoints

Health:

	GET /health

Station:

	POST /tickets - Issue the next ticket
	GET  /tickets - Record viewer (?date=YYYY-MM-DD)

Rooms (controls require X-Room-Key):

	GET  /rooms                - All rooms
	GET  /rooms/{room}         - One room
	POST /rooms/{room}/call    - Call the next ticket
	POST /rooms/{room}/recall  - Re-announce the active ticket
	POST /rooms/{room}/wait    - Release the active ticket
	POST /rooms/{room}/open    - Reopen
	POST /rooms/{room}/close   - Close

Display:

	GET /display - Latest snapshot, registered only when a display runs

Room names with spaces are path-escaped ("/rooms/Room%201/call").
*/
package router
