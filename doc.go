// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Quickly Call queue server.

Quickly Call runs an interview queue: a station issues numbered tickets,
rooms call them in issuance order, and a display shows who each room is
serving. Rooms and displays share nothing but the queue state store.

# Starting the Server

	DATABASE_URL=queue.db ROOM_KEY_SALT=... ROOMS="Room 1,Room 2" go run .

Or with flags:

	go run . -d queue.db -room-salt secret -rooms "Room 1,Room 2" -store file

Each room's operator key is logged at startup.

# Configuration

Required settings:

  - DATABASE_URL (-d): ledger database (sqlite path or postgres URL)
  - ROOM_KEY_SALT (-room-salt): secret for room key HMAC

Optional settings include the store backend (sql, file or redis), the room
list, the display poll interval and the audio cue. See package cliparse.

# Architecture

  - sequence: daily ticket numbers, recovered from the issuance ledger
  - store: the claim log (sqlstore, filestore, redisstore)
  - coordinator: one call coordinator per room
  - display, notify: per-room reduction, transitions and cues
  - render: logging rendering collaborator
  - handlers, router, middleware: operator HTTP API
  - issuance, db: ledger and schema
  - auth, cliparse: room keys and configuration

On SIGINT or SIGTERM the server stops accepting requests, lets in-flight
requests finish, and waits for room and display loops to exit.
*/
package main
