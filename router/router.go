// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/quickly-call/handlers"
	"github.com/danielhkuo/quickly-call/middleware"
)

// Handlers groups the API handlers; Display is nil when the server runs
// without a display aggregator.
type Handlers struct {
	Station *handlers.StationHandler
	Rooms   *handlers.RoomHandler
	Display *handlers.DisplayHandler
}

func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Station
	mux.HandleFunc("POST /tickets", middleware.WithLogging(h.Station.IssueTicket))
	mux.HandleFunc("GET /tickets", middleware.WithLogging(h.Station.ListTickets))

	// Room control panels (X-Room-Key)
	mux.HandleFunc("GET /rooms", middleware.WithLogging(h.Rooms.ListRooms))
	mux.HandleFunc("GET /rooms/{room}", middleware.WithLogging(h.Rooms.GetRoom))
	mux.HandleFunc("POST /rooms/{room}/call", middleware.WithLogging(h.Rooms.Call))
	mux.HandleFunc("POST /rooms/{room}/recall", middleware.WithLogging(h.Rooms.Recall))
	mux.HandleFunc("POST /rooms/{room}/wait", middleware.WithLogging(h.Rooms.Wait))
	mux.HandleFunc("POST /rooms/{room}/open", middleware.WithLogging(h.Rooms.Open))
	mux.HandleFunc("POST /rooms/{room}/close", middleware.WithLogging(h.Rooms.Close))

	// Display
	if h.Display != nil {
		mux.HandleFunc("GET /display", middleware.WithLogging(h.Display.GetDisplay))
	}

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quickly-call API v1"))
	})

	return mux
}
