// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/danielhkuo/quickly-call/store"
)

// Policy bounds how long a transient failure is retried locally.
type Policy struct {
	MaxTries uint
	Initial  time.Duration
	Max      time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxTries: 5,
		Initial:  50 * time.Millisecond,
		Max:      time.Second,
	}
}

// Transient reports whether err is worth retrying: contention or an
// unreachable store.
func Transient(err error) bool {
	return errors.Is(err, store.ErrBusy) || errors.Is(err, store.ErrUnavailable)
}

// Do runs op until it succeeds, returns a non-transient error, or the
// policy is exhausted. The last error is returned unchanged.
func Do[T any](ctx context.Context, p Policy, name string, op func() (T, error)) (T, error) {
	tries := p.MaxTries
	if tries == 0 {
		tries = 1
	}

	b := backoff.NewExponentialBackOff()
	if p.Initial > 0 {
		b.InitialInterval = p.Initial
	}
	if p.Max > 0 {
		b.MaxInterval = p.Max
	}

	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && !Transient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(tries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			slog.Debug("retrying", "op", name, "wait_ms", wait.Milliseconds(), "error", err)
		}),
	)
}
