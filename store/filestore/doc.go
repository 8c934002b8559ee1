// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package filestore implements store.Store as a single versioned JSON
document, for sites where the only shared medium is a file share.

	{"schema": 1, "version": 7, "date": "2025-03-14", "log": [
	    {"id": "...", "ticket": {"date": "2025-03-14", "sequence": 1},
	     "room": "Room 2", "name": "Ada", "timestamp": "..."}
	]}

An absent or empty document is an empty log. A document that fails
decoding or validation is corrupt: Snapshot treats it as empty, Claim
refuses with store.ErrCorrupt, and ResetForNewDay replaces it.

Writers serialize on flock(2) of "<path>.lock", polling for at most the
claim timeout. Unix only.
*/
package filestore
