package store

import (
	"errors"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-call/models"
)

func TestValidate(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	claim := func(seq int, room string) models.Claim {
		return models.Claim{
			Ticket:    models.Ticket{Date: "2025-03-14", Sequence: seq},
			Room:      room,
			ClaimedAt: at,
		}
	}

	tests := []struct {
		name    string
		log     models.ClaimLog
		wantErr bool
	}{
		{
			name: "empty document",
			log:  models.ClaimLog{},
		},
		{
			name: "dated empty log",
			log:  models.ClaimLog{Date: "2025-03-14"},
		},
		{
			name: "valid claims",
			log:  models.ClaimLog{Date: "2025-03-14", Claims: []models.Claim{claim(1, "Room 1"), claim(2, "Room 2")}},
		},
		{
			name:    "undated log with claims",
			log:     models.ClaimLog{Claims: []models.Claim{claim(1, "Room 1")}},
			wantErr: true,
		},
		{
			name:    "malformed date",
			log:     models.ClaimLog{Date: "14/03/2025"},
			wantErr: true,
		},
		{
			name:    "missing room",
			log:     models.ClaimLog{Date: "2025-03-14", Claims: []models.Claim{claim(1, "")}},
			wantErr: true,
		},
		{
			name:    "zero sequence",
			log:     models.ClaimLog{Date: "2025-03-14", Claims: []models.Claim{claim(0, "Room 1")}},
			wantErr: true,
		},
		{
			name: "claim from another date",
			log: models.ClaimLog{Date: "2025-03-14", Claims: []models.Claim{{
				Ticket:    models.Ticket{Date: "2025-03-13", Sequence: 1},
				Room:      "Room 1",
				ClaimedAt: at,
			}}},
			wantErr: true,
		},
		{
			name: "missing timestamp",
			log: models.ClaimLog{Date: "2025-03-14", Claims: []models.Claim{{
				Ticket: models.Ticket{Date: "2025-03-14", Sequence: 1},
				Room:   "Room 1",
			}}},
			wantErr: true,
		},
		{
			name:    "ticket claimed twice",
			log:     models.ClaimLog{Date: "2025-03-14", Claims: []models.Claim{claim(3, "Room 1"), claim(3, "Room 2")}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.log)
			if tt.wantErr {
				if !errors.Is(err, ErrCorrupt) {
					t.Errorf("Validate() error = %v, want ErrCorrupt", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error = %v", err)
			}
		})
	}
}

func TestCheckDate(t *testing.T) {
	tests := []struct {
		name       string
		logDate    string
		ticketDate string
		wantErr    bool
	}{
		{"fresh log adopts ticket date", "", "2025-03-14", false},
		{"same date", "2025-03-14", "2025-03-14", false},
		{"stale ticket", "2025-03-15", "2025-03-14", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckDate(tt.logDate, tt.ticketDate)
			if got := errors.Is(err, ErrDateMismatch); got != tt.wantErr {
				t.Errorf("CheckDate(%q, %q) = %v, wantErr %v", tt.logDate, tt.ticketDate, err, tt.wantErr)
			}
		})
	}
}

func TestCheckRollover(t *testing.T) {
	tests := []struct {
		name    string
		logDate string
		date    string
		wantErr bool
	}{
		{"undated log", "", "2025-03-14", false},
		{"next day", "2025-03-14", "2025-03-15", false},
		{"across month", "2025-03-31", "2025-04-01", false},
		{"same day", "2025-03-14", "2025-03-14", false},
		{"previous day", "2025-03-15", "2025-03-14", true},
		{"previous year", "2025-01-01", "2024-12-31", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRollover(tt.logDate, tt.date)
			if got := errors.Is(err, ErrStaleDate); got != tt.wantErr {
				t.Errorf("CheckRollover(%q, %q) = %v, wantErr %v", tt.logDate, tt.date, err, tt.wantErr)
			}
		})
	}
}

func TestClaimRequestValidate(t *testing.T) {
	ticket := models.Ticket{Date: "2025-03-14", Sequence: 1}

	tests := []struct {
		name    string
		req     ClaimRequest
		wantErr bool
	}{
		{"valid", ClaimRequest{Ticket: ticket, Room: "Room 1"}, false},
		{"no room", ClaimRequest{Ticket: ticket}, true},
		{"bad date", ClaimRequest{Ticket: models.Ticket{Date: "today", Sequence: 1}, Room: "Room 1"}, true},
		{"bad sequence", ClaimRequest{Ticket: models.Ticket{Date: "2025-03-14"}, Room: "Room 1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
