// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"encoding/json"
	"testing"
)

func TestParseUserID(t *testing.T) {
	tests := []struct {
		raw       string
		wantErr   bool
		localpart string
		server    string
	}{
		{raw: "@reader:example.org", localpart: "reader", server: "example.org"},
		{raw: "@reader:localhost:8448", localpart: "reader", server: "localhost:8448"},
		{raw: "", wantErr: true},
		{raw: "reader:example.org", wantErr: true},
		{raw: "@reader", wantErr: true},
		{raw: "@:example.org", wantErr: true},
		{raw: "@reader:", wantErr: true},
		{raw: "@read er:example.org", wantErr: true},
	}
	for _, test := range tests {
		t.Run(test.raw, func(t *testing.T) {
			userID, err := ParseUserID(test.raw)
			if test.wantErr {
				if err == nil {
					t.Fatalf("ParseUserID(%q) succeeded, want error", test.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseUserID(%q) error: %v", test.raw, err)
			}
			if userID.Localpart() != test.localpart {
				t.Errorf("Localpart() = %q, want %q", userID.Localpart(), test.localpart)
			}
			if userID.Server() != test.server {
				t.Errorf("Server() = %q, want %q", userID.Server(), test.server)
			}
		})
	}
}

func TestParseChannel(t *testing.T) {
	alias, err := ParseChannel("#news:example.org")
	if err != nil {
		t.Fatalf("ParseChannel(alias) error: %v", err)
	}
	if !alias.NeedsResolution() {
		t.Error("alias channel should need resolution")
	}
	if alias.String() != "#news:example.org" {
		t.Errorf("String() = %q", alias.String())
	}

	room, err := ParseChannel("!abc:example.org")
	if err != nil {
		t.Fatalf("ParseChannel(room ID) error: %v", err)
	}
	if room.NeedsResolution() {
		t.Error("room ID channel should not need resolution")
	}
	if room.RoomID.String() != "!abc:example.org" {
		t.Errorf("RoomID = %q", room.RoomID)
	}

	for _, raw := range []string{"", "@user:example.org", "news", "#news"} {
		if _, err := ParseChannel(raw); err == nil {
			t.Errorf("ParseChannel(%q) succeeded, want error", raw)
		}
	}
}

func TestTextRoundTrip(t *testing.T) {
	type document struct {
		User  UserID    `json:"user"`
		Room  RoomID    `json:"room"`
		Alias RoomAlias `json:"alias"`
	}
	original := document{
		User:  mustUser(t, "@reader:example.org"),
		Room:  mustRoom(t, "!abc:example.org"),
		Alias: MustParseRoomAlias("#news:example.org"),
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded document
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != original {
		t.Errorf("roundtrip = %+v, want %+v", decoded, original)
	}

	var bad document
	if err := json.Unmarshal([]byte(`{"user":"not-a-user"}`), &bad); err == nil {
		t.Error("expected validation error for malformed user ID")
	}
}

func mustUser(t *testing.T, raw string) UserID {
	t.Helper()
	userID, err := ParseUserID(raw)
	if err != nil {
		t.Fatalf("ParseUserID(%q): %v", raw, err)
	}
	return userID
}

func mustRoom(t *testing.T, raw string) RoomID {
	t.Helper()
	roomID, err := ParseRoomID(raw)
	if err != nil {
		t.Fatalf("ParseRoomID(%q): %v", raw, err)
	}
	return roomID
}
