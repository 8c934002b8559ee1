// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestGenerateRoomKey(t *testing.T) {
	tests := []struct {
		name string
		room string
		salt string
	}{
		{"standard", "Room 1", "secret-salt"},
		{"empty room", "", "salt"},
		{"empty salt", "Room 2", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key1 := GenerateRoomKey(tt.room, tt.salt)
			key2 := GenerateRoomKey(tt.room, tt.salt)

			// Should be deterministic
			if key1 != key2 {
				t.Errorf("GenerateRoomKey() not deterministic: %s != %s", key1, key2)
			}
			if key1 == "" {
				t.Error("GenerateRoomKey() returned empty key")
			}
			// URL-safe, no padding
			if strings.ContainsAny(key1, "+/=") {
				t.Errorf("GenerateRoomKey() contains non URL-safe chars: %s", key1)
			}
		})
	}

	if GenerateRoomKey("Room 1", "salt") == GenerateRoomKey("Room 2", "salt") {
		t.Error("different rooms should produce different keys")
	}
	if GenerateRoomKey("Room 1", "salt1") == GenerateRoomKey("Room 1", "salt2") {
		t.Error("different salts should produce different keys")
	}
}

func TestValidateRoomKey(t *testing.T) {
	salt := "test-salt"
	key := GenerateRoomKey("Room 1", salt)

	tests := []struct {
		name    string
		room    string
		key     string
		wantErr bool
	}{
		{"valid key", "Room 1", key, false},
		{"other room", "Room 2", key, true},
		{"empty key", "Room 1", "", true},
		{"tampered key", "Room 1", key + "x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRoomKey(tt.room, tt.key, salt)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRoomKey) {
					t.Errorf("ValidateRoomKey() error = %v, want ErrInvalidRoomKey", err)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidateRoomKey() unexpected error = %v", err)
			}
		})
	}
}

func TestWriteRoomKeys(t *testing.T) {
	var buf bytes.Buffer
	rooms := []string{"Room 1", "Room 2"}

	if err := WriteRoomKeys(&buf, rooms, "salt"); err != nil {
		t.Fatalf("WriteRoomKeys() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(rooms) {
		t.Fatalf("expected %d lines, got %d: %q", len(rooms), len(lines), buf.String())
	}
	for i, line := range lines {
		room, key, ok := strings.Cut(line, "\t")
		if !ok || room != rooms[i] {
			t.Errorf("line %d = %q, want room %q", i, line, rooms[i])
			continue
		}
		if err := ValidateRoomKey(room, key, "salt"); err != nil {
			t.Errorf("printed key for %s does not validate: %v", room, err)
		}
	}
}
