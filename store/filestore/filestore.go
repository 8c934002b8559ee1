// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-call/models"
	"github.com/danielhkuo/quickly-call/store"
)

const documentVersion = 1

var _ store.Store = (*Store)(nil)

// Store keeps the claim log in one JSON document.
//
// Writers hold an advisory lock on a sibling ".lock" file and publish by
// renaming a fully written temp file over the document, so readers see
// either the old or the new version and never take the lock.
type Store struct {
	path    string
	lock    string
	timeout time.Duration
}

type document struct {
	Schema  int     `json:"schema"`
	Version int64   `json:"version"`
	Date    string  `json:"date"`
	Log     []entry `json:"log"`
}

type entry struct {
	ID        string        `json:"id"`
	Ticket    models.Ticket `json:"ticket"`
	Room      string        `json:"room"`
	Name      string        `json:"name,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Open returns a store for the document at path. The document need not exist.
func Open(path string, claimTimeout time.Duration) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("state path is required")
	}
	clean := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &Store{path: clean, lock: clean + ".lock", timeout: claimTimeout}, nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) Claim(ctx context.Context, req store.ClaimRequest) (models.Claim, error) {
	if err := req.Validate(); err != nil {
		return models.Claim{}, err
	}
	if req.At.IsZero() {
		req.At = time.Now()
	}

	unlock, err := acquire(ctx, s.lock, s.timeout)
	if err != nil {
		return models.Claim{}, err
	}
	defer unlock()

	doc, err := s.read()
	if err != nil {
		// Writers fail closed: appending to an unreadable log could re-serve tickets.
		return models.Claim{}, err
	}
	if err := store.CheckDate(doc.Date, req.Ticket.Date); err != nil {
		return models.Claim{}, err
	}
	for _, e := range doc.Log {
		if e.Ticket == req.Ticket {
			return models.Claim{}, store.ErrAlreadyClaimed
		}
	}

	e := entry{
		ID:        uuid.NewString(),
		Ticket:    req.Ticket,
		Room:      req.Room,
		Name:      req.Name,
		Timestamp: req.At,
	}
	doc.Date = req.Ticket.Date
	doc.Version++
	doc.Log = append(doc.Log, e)

	if err := s.publish(doc); err != nil {
		return models.Claim{}, err
	}

	return e.claim(len(doc.Log)), nil
}

func (s *Store) Snapshot(ctx context.Context) (models.ClaimLog, error) {
	if err := ctx.Err(); err != nil {
		return models.ClaimLog{}, err
	}

	doc, err := s.read()
	if errors.Is(err, store.ErrCorrupt) {
		slog.Error("queue state document failed validation, treating as empty", "path", s.path, "error", err)
		return models.ClaimLog{}, nil
	}
	if err != nil {
		return models.ClaimLog{}, err
	}
	return doc.claimLog(), nil
}

func (s *Store) ResetForNewDay(ctx context.Context, date string) error {
	if _, err := time.Parse(models.DateFormat, date); err != nil {
		return fmt.Errorf("invalid date %q", date)
	}

	unlock, err := acquire(ctx, s.lock, s.timeout)
	if err != nil {
		return err
	}
	defer unlock()

	doc, err := s.read()
	switch {
	case errors.Is(err, store.ErrCorrupt):
		slog.Warn("replacing corrupt queue state document", "path", s.path, "error", err)
		doc = document{}
	case err != nil:
		return err
	case doc.Date == date:
		return nil
	}
	if err := store.CheckRollover(doc.Date, date); err != nil {
		return err
	}

	previous := doc.Date
	next := document{Version: doc.Version + 1, Date: date}
	if err := s.publish(next); err != nil {
		return err
	}

	slog.Info("claim log reset", "previous_date", previous, "log_date", date)
	return nil
}

// read loads and validates the document. A missing or empty file is an
// empty log.
func (s *Store) read() (document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return document{Schema: documentVersion}, nil
	}
	if err != nil {
		return document{}, fmt.Errorf("read %s: %w: %w", s.path, store.ErrUnavailable, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return document{Schema: documentVersion}, nil
	}

	var doc document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return document{}, fmt.Errorf("%w: decode %s: %v", store.ErrCorrupt, s.path, err)
	}
	if doc.Schema != documentVersion {
		return document{}, fmt.Errorf("%w: unsupported schema %d", store.ErrCorrupt, doc.Schema)
	}
	if err := store.Validate(doc.claimLog()); err != nil {
		return document{}, err
	}
	return doc, nil
}

func (s *Store) publish(doc document) error {
	doc.Schema = documentVersion
	if doc.Log == nil {
		doc.Log = []entry{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode queue state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w: %w", store.ErrUnavailable, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state: %w: %w", store.ErrUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp state: %w: %w", store.ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state: %w: %w", store.ErrUnavailable, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("publish state: %w: %w", store.ErrUnavailable, err)
	}
	return nil
}

func (d document) claimLog() models.ClaimLog {
	log := models.ClaimLog{Date: d.Date, Version: d.Version}
	for i, e := range d.Log {
		log.Claims = append(log.Claims, e.claim(i+1))
	}
	return log
}

func (e entry) claim(position int) models.Claim {
	return models.Claim{
		ID:        e.ID,
		Ticket:    e.Ticket,
		Room:      e.Room,
		Name:      e.Name,
		ClaimedAt: e.Timestamp,
		Position:  position,
	}
}
