// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-call/cliparse"
	"github.com/danielhkuo/quickly-call/db"
)

// TestDate is the business day most tests run on
const TestDate = "2025-03-14"

// SetupTestDB creates a fresh sqlite database file with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "queue.db")
	conn, err := db.Open(db.SQLite, path, 2*time.Second)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseURL:   "file:test.db",
		DatabaseType:  db.SQLite,
		StoreType:     cliparse.StoreSQL,
		Rooms:         []string{"Room 1", "Room 2"},
		RoomKeySalt:   "test-room-salt",
		PollInterval:  10 * time.Millisecond,
		ClaimTimeout:  2 * time.Second,
		ClaimRetries:  5,
		BlinkCount:    6,
		BlinkInterval: time.Millisecond,
	}
}

// IssueTestTicket writes an issuance record directly to the ledger
func IssueTestTicket(t *testing.T, conn *sql.DB, date string, sequence int, name string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO ticket (ticket_date, sequence, name, contact, issued_at)
		VALUES ($1, $2, $3, '', $4)
	`, date, sequence, name, time.Now().UnixNano())
	if err != nil {
		t.Fatalf("Failed to issue test ticket: %v", err)
	}
}

// Clock is a settable clock for tests
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock set to noon on date
func NewClock(t *testing.T, date string) *Clock {
	t.Helper()

	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		t.Fatalf("Invalid clock date %q: %v", date, err)
	}
	return &Clock{now: day.Add(12 * time.Hour)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
