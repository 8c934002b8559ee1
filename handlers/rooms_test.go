// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/quickly-call/coordinator"
	"github.com/danielhkuo/quickly-call/models"
	"github.com/danielhkuo/quickly-call/testutil"
)

func TestCall_Success(t *testing.T) {
	s := newTestStack(t)
	s.issue(t, 2)

	w := s.do("Room 1", "call")
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.CallResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Outcome != models.OutcomeCalled || resp.Claim == nil {
		t.Fatalf("Expected called outcome, got %+v", resp)
	}
	if resp.Claim.Ticket.Sequence != 1 || resp.Claim.Room != "Room 1" {
		t.Errorf("Expected ticket 1 in Room 1, got %+v", resp.Claim)
	}
	if resp.Claim.ID == "" {
		t.Error("Expected claim ID")
	}
}

func TestCall_Empty(t *testing.T) {
	s := newTestStack(t)

	w := s.do("Room 1", "call")
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.CallResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Outcome != models.OutcomeEmpty || resp.Message != coordinator.ReasonNothingToCall {
		t.Errorf("Expected empty outcome, got %+v", resp)
	}
}

func TestRoomControls_Auth(t *testing.T) {
	s := newTestStack(t)

	testCases := []struct {
		name     string
		room     string
		key      string
		expected int
	}{
		{"missing key", "Room 1", "", http.StatusUnauthorized},
		{"other room's key", "Room 1", s.roomKey("Room 2"), http.StatusUnauthorized},
		{"unknown room", "Room 9", s.roomKey("Room 9"), http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := s.roomRequest(tc.room, "call")
			req.Header.Set(RoomKeyHeader, tc.key)
			w := httptest.NewRecorder()
			s.rooms.Call(w, req)

			testutil.AssertStatus(t, w, tc.expected)
		})
	}
}

func TestRoomControls_InvalidTransitions(t *testing.T) {
	testCases := []struct {
		name    string
		setup   []string
		action  string
		message string
	}{
		{"recall with nothing called", nil, "recall", coordinator.ReasonNoRecall},
		{"open while open", nil, "open", coordinator.ReasonAlreadyOpen},
		{"call while closed", []string{"close"}, "call", coordinator.ReasonClosed},
		{"wait while closed", []string{"close"}, "wait", coordinator.ReasonClosed},
		{"close while closed", []string{"close"}, "close", coordinator.ReasonAlreadyClosed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestStack(t)
			s.issue(t, 1)
			for _, action := range tc.setup {
				testutil.AssertStatus(t, s.do("Room 1", action), http.StatusOK)
			}

			w := s.do("Room 1", tc.action)
			testutil.AssertStatus(t, w, http.StatusConflict)

			var resp models.ErrorResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Message != tc.message {
				t.Errorf("Expected message %q, got %q", tc.message, resp.Message)
			}
		})
	}
}

func TestRecall_ReturnsActive(t *testing.T) {
	s := newTestStack(t)
	s.issue(t, 1)
	s.do("Room 1", "call")

	w := s.do("Room 1", "recall")
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.CallResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Claim == nil || resp.Claim.Ticket.Sequence != 1 {
		t.Errorf("Expected ticket 1 recalled, got %+v", resp.Claim)
	}
}

func TestCloseOpen_Cycle(t *testing.T) {
	s := newTestStack(t)
	s.issue(t, 1)
	s.do("Room 1", "call")

	w := s.do("Room 1", "close")
	testutil.AssertStatus(t, w, http.StatusOK)
	var view models.RoomView
	testutil.AssertJSON(t, w, &view)
	if view.Open {
		t.Error("Expected room closed")
	}

	w = s.do("Room 1", "open")
	testutil.AssertStatus(t, w, http.StatusOK)
	view = models.RoomView{}
	testutil.AssertJSON(t, w, &view)
	if !view.Open || view.Active != nil {
		t.Errorf("Expected open room waiting for a claim, got %+v", view)
	}
}

func TestListAndGetRooms(t *testing.T) {
	s := newTestStack(t)
	s.issue(t, 1)
	s.do("Room 2", "call")

	req := httptest.NewRequest("GET", "/rooms", nil)
	w := httptest.NewRecorder()
	s.rooms.ListRooms(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var views []models.RoomView
	testutil.AssertJSON(t, w, &views)
	if len(views) != 2 || views[0].Room != "Room 1" || views[1].Room != "Room 2" {
		t.Fatalf("Expected rooms in configured order, got %+v", views)
	}
	if views[1].Active == nil || views[1].Active.Ticket.Sequence != 1 {
		t.Errorf("Expected Room 2 serving ticket 1, got %+v", views[1])
	}

	req = httptest.NewRequest("GET", "/rooms/Room%202", nil)
	req.SetPathValue("room", "Room 2")
	w = httptest.NewRecorder()
	s.rooms.GetRoom(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	req = httptest.NewRequest("GET", "/rooms/Nowhere", nil)
	req.SetPathValue("room", "Nowhere")
	w = httptest.NewRecorder()
	s.rooms.GetRoom(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}
