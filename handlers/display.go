// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quickly-call/middleware"
	"github.com/danielhkuo/quickly-call/models"
)

type SnapshotSource interface {
	Latest() models.DisplaySnapshot
}

// EmphasisSource reports the blink state the notification scheduler last set.
type EmphasisSource interface {
	Emphasis(room string) models.Emphasis
}

type DisplayHandler struct {
	source   SnapshotSource
	emphasis EmphasisSource
}

// NewDisplayHandler serves source's latest snapshot. emphasis may be nil,
// in which case every room reads as normal.
func NewDisplayHandler(source SnapshotSource, emphasis EmphasisSource) *DisplayHandler {
	return &DisplayHandler{source: source, emphasis: emphasis}
}

// GetDisplay handles GET /display
func (h *DisplayHandler) GetDisplay(w http.ResponseWriter, r *http.Request) {
	snap := h.source.Latest()

	resp := models.DisplayResponse{
		DisplaySnapshot: snap,
		Emphasis:        make(map[string]models.Emphasis, len(snap.Order)),
	}
	for _, room := range snap.Order {
		resp.Emphasis[room] = models.EmphasisNormal
		if h.emphasis != nil {
			resp.Emphasis[room] = h.emphasis.Emphasis(room)
		}
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}
