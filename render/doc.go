// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package render provides the logging rendering collaborator used by the
// server: room views, display snapshots, transitions and emphasis changes
// become slog records. It holds no queue logic.
package render
