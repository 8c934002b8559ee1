// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quickly-call/auth"
	"github.com/danielhkuo/quickly-call/cliparse"
	"github.com/danielhkuo/quickly-call/coordinator"
	"github.com/danielhkuo/quickly-call/middleware"
	"github.com/danielhkuo/quickly-call/models"
)

// RoomKeyHeader carries the operator key for room controls
const RoomKeyHeader = "X-Room-Key"

// RoomHandler exposes each room's control panel.
type RoomHandler struct {
	rooms map[string]*coordinator.Room
	order []string
	cfg   cliparse.Config
}

func NewRoomHandler(rooms []*coordinator.Room, cfg cliparse.Config) *RoomHandler {
	h := &RoomHandler{rooms: make(map[string]*coordinator.Room, len(rooms)), cfg: cfg}
	for _, room := range rooms {
		h.rooms[room.Name()] = room
		h.order = append(h.order, room.Name())
	}
	return h
}

// ListRooms handles GET /rooms
func (h *RoomHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	views := make([]models.RoomView, 0, len(h.order))
	for _, name := range h.order {
		views = append(views, h.rooms[name].View())
	}
	middleware.JSONResponse(w, http.StatusOK, views)
}

// GetRoom handles GET /rooms/{room}
func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room := h.lookup(w, r)
	if room == nil {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, room.View())
}

// Call handles POST /rooms/{room}/call
func (h *RoomHandler) Call(w http.ResponseWriter, r *http.Request) {
	room := h.authorize(w, r)
	if room == nil {
		return
	}

	resp, err := room.CallNext(r.Context())
	if err != nil {
		writeQueueError(w, "call", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// Recall handles POST /rooms/{room}/recall
func (h *RoomHandler) Recall(w http.ResponseWriter, r *http.Request) {
	room := h.authorize(w, r)
	if room == nil {
		return
	}

	claim, err := room.Recall()
	if err != nil {
		writeQueueError(w, "recall", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.CallResponse{
		Outcome: models.OutcomeCalled,
		Claim:   &claim,
	})
}

// Wait handles POST /rooms/{room}/wait
func (h *RoomHandler) Wait(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "wait", (*coordinator.Room).Wait)
}

// Open handles POST /rooms/{room}/open
func (h *RoomHandler) Open(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "open", (*coordinator.Room).Open)
}

// Close handles POST /rooms/{room}/close
func (h *RoomHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "close", (*coordinator.Room).Close)
}

func (h *RoomHandler) transition(w http.ResponseWriter, r *http.Request, op string, apply func(*coordinator.Room) error) {
	room := h.authorize(w, r)
	if room == nil {
		return
	}

	if err := apply(room); err != nil {
		writeQueueError(w, op, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, room.View())
}

func (h *RoomHandler) lookup(w http.ResponseWriter, r *http.Request) *coordinator.Room {
	name := r.PathValue("room")
	room, ok := h.rooms[name]
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Room not found")
		return nil
	}
	return room
}

func (h *RoomHandler) authorize(w http.ResponseWriter, r *http.Request) *coordinator.Room {
	room := h.lookup(w, r)
	if room == nil {
		return nil
	}

	key := r.Header.Get(RoomKeyHeader)
	if err := auth.ValidateRoomKey(room.Name(), key, h.cfg.RoomKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid room key")
		return nil
	}
	return room
}
