// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-call/db"
	"github.com/danielhkuo/quickly-call/models"
	"github.com/danielhkuo/quickly-call/store"
)

// advisoryLockKey serializes claim log writers on postgres.
const advisoryLockKey = 0x51434c47

var _ store.Store = (*Store)(nil)

// Store keeps the claim log in the claim and queue_state tables.
type Store struct {
	db      *sql.DB
	dialect string
	timeout time.Duration
}

// New wraps an open connection. The connection must come from db.Open so
// sqlite transactions start IMMEDIATE.
func New(conn *sql.DB, dialect string, claimTimeout time.Duration) *Store {
	return &Store{db: conn, dialect: dialect, timeout: claimTimeout}
}

// Close is a no-op; the connection is owned by the caller.
func (s *Store) Close() error {
	return nil
}

// Claim appends req to the log unless its ticket was ever claimed.
func (s *Store) Claim(ctx context.Context, req store.ClaimRequest) (models.Claim, error) {
	if err := req.Validate(); err != nil {
		return models.Claim{}, err
	}
	if req.At.IsZero() {
		req.At = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.beginWrite(ctx)
	if err != nil {
		return models.Claim{}, s.classify(ctx, "begin claim", err)
	}
	defer tx.Rollback()

	logDate, err := readLogDate(ctx, tx)
	if err != nil {
		return models.Claim{}, s.classify(ctx, "read log date", err)
	}
	if err := store.CheckDate(logDate, req.Ticket.Date); err != nil {
		return models.Claim{}, err
	}
	if logDate == "" {
		if err := upsertLogDate(ctx, tx, req.Ticket.Date); err != nil {
			return models.Claim{}, s.classify(ctx, "adopt log date", err)
		}
	}

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM claim
			WHERE log_date = $1 AND sequence = $2
		)
	`, req.Ticket.Date, req.Ticket.Sequence).Scan(&exists)
	if err != nil {
		return models.Claim{}, s.classify(ctx, "check claim", err)
	}
	if exists {
		return models.Claim{}, store.ErrAlreadyClaimed
	}

	var position int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(position), 0) + 1 FROM claim WHERE log_date = $1
	`, req.Ticket.Date).Scan(&position)
	if err != nil {
		return models.Claim{}, s.classify(ctx, "next position", err)
	}

	claim := models.Claim{
		ID:        uuid.NewString(),
		Ticket:    req.Ticket,
		Room:      req.Room,
		Name:      req.Name,
		ClaimedAt: req.At,
		Position:  position,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO claim (id, log_date, sequence, room, name, claimed_at, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, claim.ID, claim.Ticket.Date, claim.Ticket.Sequence, claim.Room, claim.Name, claim.ClaimedAt.UnixNano(), claim.Position)
	if err != nil {
		return models.Claim{}, s.classify(ctx, "insert claim", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE queue_state SET version = version + 1 WHERE id = 1`)
	if err != nil {
		return models.Claim{}, s.classify(ctx, "bump version", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Claim{}, s.classify(ctx, "commit claim", err)
	}

	return claim, nil
}

// Snapshot reads the log in one statement, which both drivers evaluate
// against a single consistent view.
func (s *Store) Snapshot(ctx context.Context) (models.ClaimLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.log_date, q.version, c.id, c.sequence, c.room, c.name, c.claimed_at, c.position
		FROM queue_state q
		LEFT JOIN claim c ON c.log_date = q.log_date
		WHERE q.id = 1
		ORDER BY c.position
	`)
	if err != nil {
		return models.ClaimLog{}, fmt.Errorf("query claim log: %w: %w", store.ErrUnavailable, err)
	}
	defer rows.Close()

	var log models.ClaimLog
	for rows.Next() {
		var (
			id, room, name     sql.NullString
			sequence, position sql.NullInt64
			claimedAt          sql.NullInt64
		)
		if err := rows.Scan(&log.Date, &log.Version, &id, &sequence, &room, &name, &claimedAt, &position); err != nil {
			return models.ClaimLog{}, fmt.Errorf("scan claim: %w: %w", store.ErrUnavailable, err)
		}
		if !id.Valid {
			continue
		}
		log.Claims = append(log.Claims, models.Claim{
			ID:        id.String,
			Ticket:    models.Ticket{Date: log.Date, Sequence: int(sequence.Int64)},
			Room:      room.String,
			Name:      name.String,
			ClaimedAt: time.Unix(0, claimedAt.Int64),
			Position:  int(position.Int64),
		})
	}
	if err := rows.Err(); err != nil {
		return models.ClaimLog{}, fmt.Errorf("read claim log: %w: %w", store.ErrUnavailable, err)
	}

	if err := store.Validate(log); err != nil {
		slog.Error("claim log failed validation, treating as empty", "error", err)
		return models.ClaimLog{}, nil
	}

	return log, nil
}

// ResetForNewDay clears the log and moves it to date.
func (s *Store) ResetForNewDay(ctx context.Context, date string) error {
	if _, err := time.Parse(models.DateFormat, date); err != nil {
		return fmt.Errorf("invalid date %q", date)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.beginWrite(ctx)
	if err != nil {
		return s.classify(ctx, "begin reset", err)
	}
	defer tx.Rollback()

	logDate, err := readLogDate(ctx, tx)
	if err != nil {
		return s.classify(ctx, "read log date", err)
	}
	if logDate == date {
		return nil
	}
	if err := store.CheckRollover(logDate, date); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM claim`); err != nil {
		return s.classify(ctx, "clear claims", err)
	}
	if err := upsertLogDate(ctx, tx, date); err != nil {
		return s.classify(ctx, "set log date", err)
	}
	if err := tx.Commit(); err != nil {
		return s.classify(ctx, "commit reset", err)
	}

	slog.Info("claim log reset", "previous_date", logDate, "log_date", date)
	return nil
}

func (s *Store) beginWrite(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	if s.dialect != db.Postgres {
		return tx, nil
	}

	lockTimeout := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.timeout.Milliseconds())
	if _, err := tx.ExecContext(ctx, lockTimeout); err != nil {
		tx.Rollback()
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, advisoryLockKey); err != nil {
		tx.Rollback()
		return nil, err
	}
	return tx, nil
}

func (s *Store) classify(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return ctx.Err()
	case db.IsBusy(err), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, store.ErrBusy)
	case db.IsUniqueViolation(err):
		return store.ErrAlreadyClaimed
	default:
		return fmt.Errorf("%s: %w: %w", op, store.ErrUnavailable, err)
	}
}

func readLogDate(ctx context.Context, tx *sql.Tx) (string, error) {
	var date string
	err := tx.QueryRowContext(ctx, `SELECT log_date FROM queue_state WHERE id = 1`).Scan(&date)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return date, err
}

func upsertLogDate(ctx context.Context, tx *sql.Tx, date string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO queue_state (id, log_date, version)
		VALUES (1, $1, 1)
		ON CONFLICT (id) DO UPDATE SET log_date = excluded.log_date, version = queue_state.version + 1
	`, date)
	return err
}
