// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/quickly-call/models"
	"github.com/danielhkuo/quickly-call/store"
)

// Claim script results
const (
	resultAlreadyClaimed = -1
	resultDateMismatch   = -2
)

// Reset script results
const (
	resetStale = -1
	resetNoop  = 0
	resetDone  = 1
)

// claimScript is the single arbitration point: Redis runs it atomically, so
// the served check and the append cannot interleave with another room's.
//
// KEYS: date, log, served, version
// ARGV: ticket date, ticket key, encoded entry
var claimScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current and current ~= ARGV[1] then
	return -2
end
if redis.call('SISMEMBER', KEYS[3], ARGV[2]) == 1 then
	return -1
end
if not current then
	redis.call('SET', KEYS[1], ARGV[1])
end
redis.call('SADD', KEYS[3], ARGV[2])
redis.call('INCR', KEYS[4])
return redis.call('RPUSH', KEYS[2], ARGV[3])
`)

// KEYS: date, log, served, version
// ARGV: new date
var resetScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current == ARGV[1] then
	return 0
end
if current and ARGV[1] < current then
	return -1
end
redis.call('DEL', KEYS[2], KEYS[3])
redis.call('SET', KEYS[1], ARGV[1])
redis.call('INCR', KEYS[4])
return 1
`)

var _ store.Store = (*Store)(nil)

type Store struct {
	client  *redis.Client
	timeout time.Duration

	dateKey, logKey, servedKey, versionKey string
}

type entry struct {
	ID        string        `json:"id"`
	Ticket    models.Ticket `json:"ticket"`
	Room      string        `json:"room"`
	Name      string        `json:"name,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// New returns a store whose keys all start with prefix.
func New(client *redis.Client, prefix string, claimTimeout time.Duration) *Store {
	return &Store{
		client:     client,
		timeout:    claimTimeout,
		dateKey:    fmt.Sprintf("%s:date", prefix),
		logKey:     fmt.Sprintf("%s:log", prefix),
		servedKey:  fmt.Sprintf("%s:served", prefix),
		versionKey: fmt.Sprintf("%s:version", prefix),
	}
}

func (s *Store) keys() []string {
	return []string{s.dateKey, s.logKey, s.servedKey, s.versionKey}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Claim(ctx context.Context, req store.ClaimRequest) (models.Claim, error) {
	if err := req.Validate(); err != nil {
		return models.Claim{}, err
	}
	if req.At.IsZero() {
		req.At = time.Now()
	}

	e := entry{
		ID:        uuid.NewString(),
		Ticket:    req.Ticket,
		Room:      req.Room,
		Name:      req.Name,
		Timestamp: req.At,
	}
	encoded, err := json.Marshal(e)
	if err != nil {
		return models.Claim{}, fmt.Errorf("encode claim: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := claimScript.Run(ctx, s.client, s.keys(), req.Ticket.Date, req.Ticket.String(), string(encoded)).Int64()
	if err != nil {
		return models.Claim{}, classify(ctx, "claim", err)
	}

	switch result {
	case resultAlreadyClaimed:
		return models.Claim{}, store.ErrAlreadyClaimed
	case resultDateMismatch:
		return models.Claim{}, s.dateMismatch(ctx, req.Ticket.Date)
	}

	return e.claim(int(result)), nil
}

// dateMismatch builds the error for a claim the script refused on date.
// The log may have rolled over since, so the current date only feeds the
// message.
func (s *Store) dateMismatch(ctx context.Context, ticketDate string) error {
	current, err := s.client.Get(ctx, s.dateKey).Result()
	if err != nil {
		return fmt.Errorf("%w: ticket %s, log date unreadable: %w", store.ErrDateMismatch, ticketDate, err)
	}
	return fmt.Errorf("%w: log %s, ticket %s", store.ErrDateMismatch, current, ticketDate)
}

// Snapshot reads date, version and log in one MULTI block.
func (s *Store) Snapshot(ctx context.Context) (models.ClaimLog, error) {
	var dateCmd, versionCmd *redis.StringCmd
	var logCmd *redis.StringSliceCmd

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		dateCmd = pipe.Get(ctx, s.dateKey)
		versionCmd = pipe.Get(ctx, s.versionKey)
		logCmd = pipe.LRange(ctx, s.logKey, 0, -1)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return models.ClaimLog{}, classify(ctx, "snapshot", err)
	}

	log := models.ClaimLog{Date: dateCmd.Val()}
	log.Version, _ = versionCmd.Int64()

	for i, raw := range logCmd.Val() {
		var e entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			slog.Error("claim log entry undecodable, treating log as empty", "position", i+1, "error", err)
			return models.ClaimLog{}, nil
		}
		log.Claims = append(log.Claims, e.claim(i+1))
	}

	if err := store.Validate(log); err != nil {
		slog.Error("claim log failed validation, treating as empty", "error", err)
		return models.ClaimLog{}, nil
	}
	return log, nil
}

func (s *Store) ResetForNewDay(ctx context.Context, date string) error {
	if _, err := time.Parse(models.DateFormat, date); err != nil {
		return fmt.Errorf("invalid date %q", date)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reset, err := resetScript.Run(ctx, s.client, s.keys(), date).Int64()
	if err != nil {
		return classify(ctx, "reset", err)
	}
	switch reset {
	case resetStale:
		current, _ := s.client.Get(ctx, s.dateKey).Result()
		return fmt.Errorf("%w: log %s, reset to %s", store.ErrStaleDate, current, date)
	case resetDone:
		slog.Info("claim log reset", "log_date", date)
	}
	return nil
}

func classify(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return ctx.Err()
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, store.ErrBusy)
	default:
		return fmt.Errorf("%s: %w: %w", op, store.ErrUnavailable, err)
	}
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
