// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/quickly-call/middleware"
	"github.com/danielhkuo/quickly-call/models"
)

type TicketIssuer interface {
	Next(ctx context.Context, c models.Candidate) (models.IssuedTicket, error)
}

type TicketLister interface {
	ListIssued(ctx context.Context, date string) ([]models.IssuedTicket, error)
}

// StationHandler serves the issuance station and the record viewer.
type StationHandler struct {
	issuer TicketIssuer
	lister TicketLister
	now    func() time.Time
}

func NewStationHandler(issuer TicketIssuer, lister TicketLister, now func() time.Time) *StationHandler {
	if now == nil {
		now = time.Now
	}
	return &StationHandler{issuer: issuer, lister: lister, now: now}
}

// IssueTicket handles POST /tickets
func (h *StationHandler) IssueTicket(w http.ResponseWriter, r *http.Request) {
	var req models.IssueTicketRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	candidate := models.Candidate{
		Name:    strings.TrimSpace(req.Name),
		Contact: strings.TrimSpace(req.Contact),
	}
	if candidate.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if candidate.Contact == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "contact is required")
		return
	}

	ticket, err := h.issuer.Next(r.Context(), candidate)
	if err != nil {
		writeQueueError(w, "issue ticket", err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, ticket)
}

// ListTickets handles GET /tickets?date=YYYY-MM-DD
func (h *StationHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = models.DateOf(h.now())
	}
	if _, err := time.Parse(models.DateFormat, date); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	tickets, err := h.lister.ListIssued(r.Context(), date)
	if err != nil {
		writeQueueError(w, "list tickets", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ListTicketsResponse{
		Date:    date,
		Tickets: tickets,
	})
}
