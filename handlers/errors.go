// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-call/coordinator"
	"github.com/danielhkuo/quickly-call/middleware"
	"github.com/danielhkuo/quickly-call/store"
)

// Operator-facing message once local retries are exhausted
const retryLaterMessage = "Queue is busy, please try again"

// writeQueueError maps a queue operation failure to a response.
func writeQueueError(w http.ResponseWriter, op string, err error) {
	var te *coordinator.TransitionError
	switch {
	case errors.As(err, &te):
		middleware.ErrorResponse(w, http.StatusConflict, te.Reason)
	case errors.Is(err, store.ErrBusy), errors.Is(err, store.ErrUnavailable):
		slog.Warn("queue operation deferred", "op", op, "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, retryLaterMessage)
	case errors.Is(err, store.ErrStaleDate):
		slog.Error("clock behind queue date", "op", op, "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Station clock is behind the queue date")
	case errors.Is(err, store.ErrCorrupt):
		slog.Error("queue state corrupt, refusing write", "op", op, "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Queue state needs attention")
	default:
		slog.Error("queue operation failed", "op", op, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Queue operation failed")
	}
}
