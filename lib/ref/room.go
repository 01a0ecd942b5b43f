// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// RoomID is a validated, server-assigned Matrix room ID (e.g.,
// "!hXzVbQ:example.org"). Backscroll never invents room IDs; they come
// from alias resolution or from configuration.
type RoomID struct {
	id string
}

// ParseRoomID validates and wraps a raw room ID.
func ParseRoomID(raw string) (RoomID, error) {
	if _, _, err := splitIdentifier(raw, '!', "room ID"); err != nil {
		return RoomID{}, err
	}
	return RoomID{id: raw}, nil
}

// String returns the full room ID.
func (r RoomID) String() string { return r.id }

// IsZero reports whether the RoomID is unset.
func (r RoomID) IsZero() bool { return r.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (r RoomID) MarshalText() ([]byte, error) {
	return []byte(r.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *RoomID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*r = RoomID{}
		return nil
	}
	parsed, err := ParseRoomID(string(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RoomAlias is a validated Matrix room alias (e.g., "#news:example.org").
type RoomAlias struct {
	alias string
}

// ParseRoomAlias validates and wraps a raw room alias.
func ParseRoomAlias(raw string) (RoomAlias, error) {
	if _, _, err := splitIdentifier(raw, '#', "room alias"); err != nil {
		return RoomAlias{}, err
	}
	return RoomAlias{alias: raw}, nil
}

// MustParseRoomAlias is ParseRoomAlias for known-valid input in tests.
func MustParseRoomAlias(raw string) RoomAlias {
	alias, err := ParseRoomAlias(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseRoomAlias(%q): %v", raw, err))
	}
	return alias
}

// String returns the full alias.
func (a RoomAlias) String() string { return a.alias }

// IsZero reports whether the RoomAlias is unset.
func (a RoomAlias) IsZero() bool { return a.alias == "" }

// MarshalText implements encoding.TextMarshaler.
func (a RoomAlias) MarshalText() ([]byte, error) {
	return []byte(a.alias), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *RoomAlias) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*a = RoomAlias{}
		return nil
	}
	parsed, err := ParseRoomAlias(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Channel is a configured channel handle. Exactly one of Alias and
// RoomID is set: aliases need a directory lookup before their history
// can be read, room IDs do not.
type Channel struct {
	Alias  RoomAlias
	RoomID RoomID
}

// ParseChannel accepts "#alias:server" or "!roomid:server".
func ParseChannel(raw string) (Channel, error) {
	if raw == "" {
		return Channel{}, fmt.Errorf("empty channel handle")
	}
	switch raw[0] {
	case '#':
		alias, err := ParseRoomAlias(raw)
		if err != nil {
			return Channel{}, err
		}
		return Channel{Alias: alias}, nil
	case '!':
		roomID, err := ParseRoomID(raw)
		if err != nil {
			return Channel{}, err
		}
		return Channel{RoomID: roomID}, nil
	default:
		return Channel{}, fmt.Errorf("channel %q must be a room alias (#name:server) or room ID (!id:server)", raw)
	}
}

// String returns the handle as configured.
func (c Channel) String() string {
	if !c.Alias.IsZero() {
		return c.Alias.String()
	}
	return c.RoomID.String()
}

// NeedsResolution reports whether the channel is an alias.
func (c Channel) NeedsResolution() bool { return !c.Alias.IsZero() }
