// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-call/auth"
	"github.com/danielhkuo/quickly-call/cliparse"
	"github.com/danielhkuo/quickly-call/coordinator"
	"github.com/danielhkuo/quickly-call/db"
	"github.com/danielhkuo/quickly-call/display"
	"github.com/danielhkuo/quickly-call/issuance"
	"github.com/danielhkuo/quickly-call/models"
	"github.com/danielhkuo/quickly-call/render"
	"github.com/danielhkuo/quickly-call/retry"
	"github.com/danielhkuo/quickly-call/sequence"
	"github.com/danielhkuo/quickly-call/store/sqlstore"
	"github.com/danielhkuo/quickly-call/testutil"
)

// testStack wires the queue core the way main does, on a temp database
type testStack struct {
	conn   *sql.DB
	clock  *testutil.Clock
	cfg    cliparse.Config
	store  *sqlstore.Store
	ledger *issuance.Ledger
	alloc  *sequence.Allocator
	agg    *display.Aggregator
	screen *render.Log

	station *StationHandler
	rooms   *RoomHandler
	display *DisplayHandler
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	t.Cleanup(func() { conn.Close() })

	s := &testStack{
		conn:   conn,
		clock:  testutil.NewClock(t, testutil.TestDate),
		cfg:    testutil.GetTestConfig(),
		store:  sqlstore.New(conn, db.SQLite, 2*time.Second),
		ledger: issuance.NewLedger(conn),
	}

	alloc, err := sequence.New(context.Background(), s.ledger, s.store, sequence.Options{Now: s.clock.Now, Retry: retry.DefaultPolicy()})
	if err != nil {
		t.Fatalf("Failed to create allocator: %v", err)
	}
	s.alloc = alloc

	rooms := make([]*coordinator.Room, 0, len(s.cfg.Rooms))
	for _, name := range s.cfg.Rooms {
		rooms = append(rooms, coordinator.New(name, s.store, s.ledger, nil, coordinator.Options{
			Now:   s.clock.Now,
			Retry: retry.DefaultPolicy(),
		}))
	}

	s.screen = render.NewLog(nil)
	s.agg = display.New(s.store, nil, nil, display.Options{Now: s.clock.Now})
	s.station = NewStationHandler(s.alloc, s.ledger, s.clock.Now)
	s.rooms = NewRoomHandler(rooms, s.cfg)
	s.display = NewDisplayHandler(s.agg, s.screen)
	return s
}

// issue records n tickets through the allocator
func (s *testStack) issue(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := s.alloc.Next(context.Background(), models.Candidate{Name: "Candidate", Contact: "555-0100"}); err != nil {
			t.Fatalf("Failed to issue ticket: %v", err)
		}
	}
}

func (s *testStack) roomKey(room string) string {
	return auth.GenerateRoomKey(room, s.cfg.RoomKeySalt)
}

// roomRequest builds POST /rooms/{room}/{action} with a valid room key
func (s *testStack) roomRequest(room, action string) *http.Request {
	req := httptest.NewRequest("POST", "/rooms/"+url.PathEscape(room)+"/"+action, nil)
	req.SetPathValue("room", room)
	req.Header.Set(RoomKeyHeader, s.roomKey(room))
	return req
}

// do runs a room action and returns the recorder
func (s *testStack) do(room, action string) *httptest.ResponseRecorder {
	handlers := map[string]http.HandlerFunc{
		"call":   s.rooms.Call,
		"recall": s.rooms.Recall,
		"wait":   s.rooms.Wait,
		"open":   s.rooms.Open,
		"close":  s.rooms.Close,
	}

	w := httptest.NewRecorder()
	handlers[action](w, s.roomRequest(room, action))
	return w
}
