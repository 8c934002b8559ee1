// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package retry retries store.ErrBusy and store.ErrUnavailable with bounded
// exponential backoff (github.com/cenkalti/backoff/v5). Any other error stops
// the retry loop immediately.
package retry
