// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

// UserID is a validated Matrix user ID (e.g., "@reader:example.org").
type UserID struct {
	id string
}

// ParseUserID validates and wraps a raw Matrix user ID.
func ParseUserID(raw string) (UserID, error) {
	if _, _, err := splitIdentifier(raw, '@', "user ID"); err != nil {
		return UserID{}, err
	}
	return UserID{id: raw}, nil
}

// String returns the full user ID.
func (u UserID) String() string { return u.id }

// IsZero reports whether the UserID is unset.
func (u UserID) IsZero() bool { return u.id == "" }

// Localpart returns the part between '@' and ':'. Empty for the zero
// value.
func (u UserID) Localpart() string {
	if u.id == "" {
		return ""
	}
	localpart, _, _ := splitIdentifier(u.id, '@', "user ID")
	return localpart
}

// Server returns the server name. Empty for the zero value.
func (u UserID) Server() string {
	if u.id == "" {
		return ""
	}
	_, server, _ := splitIdentifier(u.id, '@', "user ID")
	return server
}

// MarshalText implements encoding.TextMarshaler.
func (u UserID) MarshalText() ([]byte, error) {
	return []byte(u.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input
// yields the zero value.
func (u *UserID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*u = UserID{}
		return nil
	}
	parsed, err := ParseUserID(string(data))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
