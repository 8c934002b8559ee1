// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package display reduces the claim log into what the displays show.

# Reduction

Reduce keeps the latest claim per room by timestamp, with equal timestamps
going to the later log entry, and orders rooms most recent first:

	snap := display.Reduce(log)
	snap.Rooms["Room 1"] // latest claim
	snap.Order           // rooms, most recent first

# Polling

An Aggregator polls its Source on a fixed interval. Staleness is bounded by
that interval. Each poll compares every room against the value seen on the
previous poll; a first appearance or a different ticket is a Transition,
handed to the Renderer and the Notifier.

	agg := display.New(st, renderer, scheduler, display.Options{Interval: 3 * time.Second})
	go agg.Run(ctx)
	agg.Latest() // last published snapshot

A store that cannot be read, or a log dated other than today, shows as no
rooms active. The aggregator detects rollover on its own clock and forgets
the previous day's values.
*/
package display
