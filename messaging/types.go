// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"github.com/bureau-foundation/backscroll/lib/ref"
	"github.com/bureau-foundation/backscroll/lib/secret"
)

// LoginOptions describes a password login.
type LoginOptions struct {
	// User is the full user ID or the localpart.
	User string
	// Password is read but not closed; the caller retains ownership.
	Password *secret.Buffer
	// DeviceID reuses an existing device so repeated logins do not
	// accumulate devices on the account. Empty lets the server choose.
	DeviceID string
	// DeviceName is the initial display name for a new device.
	DeviceName string
}

// loginRequest is the JSON body of POST /login.
type loginRequest struct {
	Type                     string          `json:"type"`
	Identifier               loginIdentifier `json:"identifier"`
	Password                 string          `json:"password"`
	DeviceID                 string          `json:"device_id,omitempty"`
	InitialDeviceDisplayName string          `json:"initial_device_display_name,omitempty"`
}

type loginIdentifier struct {
	Type string `json:"type"`
	User string `json:"user"`
}

// AuthResponse is the successful response from login.
type AuthResponse struct {
	UserID      ref.UserID `json:"user_id"`
	AccessToken string     `json:"access_token"`
	DeviceID    string     `json:"device_id"`
}

// Event is a room timeline event.
type Event struct {
	EventID        string         `json:"event_id"`
	Type           string         `json:"type"`
	Sender         string         `json:"sender,omitempty"`
	OriginServerTS int64          `json:"origin_server_ts"`
	Content        map[string]any `json:"content"`
	StateKey       *string        `json:"state_key,omitempty"`
}

// Event types the history reader distinguishes.
const (
	EventTypeMessage   = "m.room.message"
	EventTypeEncrypted = "m.room.encrypted"
)

// Body returns the event's text body, or nil when the content carries
// none (redacted messages, media without a caption, state events).
func (e Event) Body() *string {
	body, ok := e.Content["body"].(string)
	if !ok {
		return nil
	}
	return &body
}

// RoomMessagesOptions configures a /messages request.
type RoomMessagesOptions struct {
	From      string // pagination token; empty means "from now"
	Direction string // "b" (backward, newest first) or "f"; empty means "b"
	Limit     int    // max events to return; 0 uses server default
}

// RoomMessagesResponse is one page of room history.
type RoomMessagesResponse struct {
	Start string  `json:"start"`
	End   string  `json:"end,omitempty"`
	Chunk []Event `json:"chunk"`
}

// WhoAmIResponse is the response from /account/whoami.
type WhoAmIResponse struct {
	UserID   ref.UserID `json:"user_id"`
	DeviceID string     `json:"device_id,omitempty"`
}

// ResolveAliasResponse is the response from /directory/room/{alias}.
type ResolveAliasResponse struct {
	RoomID  ref.RoomID `json:"room_id"`
	Servers []string   `json:"servers"`
}

// ServerVersionsResponse is the response from /_matrix/client/versions.
type ServerVersionsResponse struct {
	Versions         []string        `json:"versions"`
	UnstableFeatures map[string]bool `json:"unstable_features,omitempty"`
}
