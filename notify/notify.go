// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/danielhkuo/quickly-call/models"
)

// Cycle defaults
const (
	DefaultBlinks   = 6
	DefaultInterval = 500 * time.Millisecond
)

// Sink receives emphasis changes for one display row.
type Sink interface {
	Emphasize(room string, e models.Emphasis)
}

// Player plays an audio cue. It may block; the scheduler never waits on it.
type Player interface {
	Play(ctx context.Context, path string) error
}

type Options struct {
	Blinks   int
	Interval time.Duration
	Sound    string
	Player   Player
}

type cycle struct {
	cancel context.CancelFunc
}

// Scheduler turns transitions into a bounded blink cycle and an audio cue.
type Scheduler struct {
	sink     Sink
	player   Player
	sound    string
	blinks   int
	interval time.Duration

	mu     sync.Mutex
	cycles map[string]*cycle
	wg     sync.WaitGroup
}

func New(sink Sink, opts Options) *Scheduler {
	s := &Scheduler{
		sink:     sink,
		player:   opts.Player,
		sound:    opts.Sound,
		blinks:   opts.Blinks,
		interval: opts.Interval,
		cycles:   make(map[string]*cycle),
	}
	if s.blinks <= 0 {
		s.blinks = DefaultBlinks
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	return s
}

// Trigger starts the cue sequence for t and returns immediately. A running
// cycle for the same room is cut short and restarted.
func (s *Scheduler) Trigger(ctx context.Context, t models.Transition) {
	cctx, cancel := context.WithCancel(ctx)
	c := &cycle{cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.cycles[t.Room]; ok {
		prev.cancel()
	}
	s.cycles[t.Room] = c
	s.mu.Unlock()

	s.wg.Add(1)
	go s.blink(cctx, t.Room, c)

	if s.sound != "" && s.player != nil {
		s.wg.Add(1)
		go s.play(ctx, t.Room)
	}
}

// Wait blocks until every started cycle and cue has finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) blink(ctx context.Context, room string, c *cycle) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		if s.cycles[room] == c {
			delete(s.cycles, room)
		}
		s.mu.Unlock()
		c.cancel()
	}()

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for i := 0; i < s.blinks; i++ {
		e := models.EmphasisHighlight
		if i%2 == 1 {
			e = models.EmphasisNormal
		}
		s.sink.Emphasize(room, e)

		timer.Reset(s.interval)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}

	s.sink.Emphasize(room, models.EmphasisNormal)
}

func (s *Scheduler) play(ctx context.Context, room string) {
	defer s.wg.Done()

	if _, err := os.Stat(s.sound); err != nil {
		slog.Debug("sound file unavailable, skipping cue", "room", room, "path", s.sound, "error", err)
		return
	}
	if err := s.player.Play(ctx, s.sound); err != nil {
		slog.Warn("audio cue failed", "room", room, "path", s.sound, "error", err)
	}
}
