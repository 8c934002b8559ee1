// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides the operator keys that guard room controls.

# Room Keys

Room keys use HMAC-SHA256 to create deterministic, verifiable keys:

	key := auth.GenerateRoomKey("Room 1", salt)
	err := auth.ValidateRoomKey("Room 1", key, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same room name and salt always produce the same key, so keys are never
stored. The server logs each room's key at startup for the operators.
*/
package auth
