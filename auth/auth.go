// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrInvalidRoomKey = errors.New("invalid room key")

// GenerateRoomKey creates the HMAC-based operator key for a room.
// This is deterministic and verifiable
func GenerateRoomKey(room, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte("room:" + room))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateRoomKey checks if the provided key controls the room
func ValidateRoomKey(room, key, salt string) error {
	expected := GenerateRoomKey(room, salt)
	if !hmac.Equal([]byte(key), []byte(expected)) {
		return ErrInvalidRoomKey
	}
	return nil
}

// WriteRoomKeys prints one "room<TAB>key" line per room to w.
func WriteRoomKeys(w io.Writer, rooms []string, salt string) error {
	for _, room := range rooms {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", room, GenerateRoomKey(room, salt)); err != nil {
			return err
		}
	}
	return nil
}
