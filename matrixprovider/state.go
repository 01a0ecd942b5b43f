// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package matrixprovider

import (
	"errors"
	"fmt"
	"os"

	"github.com/bureau-foundation/backscroll/lib/codec"
	"github.com/bureau-foundation/backscroll/lib/ref"
	"github.com/bureau-foundation/backscroll/lib/secret"
)

// SessionState is the session blob for a Matrix account.
type SessionState struct {
	Homeserver  string     `cbor:"homeserver"`
	UserID      ref.UserID `cbor:"user_id"`
	DeviceID    string     `cbor:"device_id"`
	AccessToken string     `cbor:"access_token"`
}

// Validate checks that every field needed to resume is present.
func (s *SessionState) Validate() error {
	var errs []error
	if s.Homeserver == "" {
		errs = append(errs, errors.New("homeserver is empty"))
	}
	if s.UserID.IsZero() {
		errs = append(errs, errors.New("user ID is empty"))
	}
	if s.AccessToken == "" {
		errs = append(errs, errors.New("access token is empty"))
	}
	return errors.Join(errs...)
}

func (s *SessionState) sameAccount(homeserver string, userID ref.UserID) bool {
	return s.Homeserver == homeserver && s.UserID == userID
}

// ReadState decodes the session file at path.
func ReadState(path string) (*SessionState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}
	defer secret.Zero(data)
	return DecodeState(data)
}

// DecodeState decodes a session blob held in memory.
func DecodeState(data []byte) (*SessionState, error) {
	var state SessionState
	if err := codec.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decoding session state: %w", err)
	}
	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session state: %w", err)
	}
	return &state, nil
}

// WriteState encodes state to path with mode 0600, replacing any
// previous content.
func WriteState(path string, state *SessionState) error {
	if err := state.Validate(); err != nil {
		return fmt.Errorf("refusing to write session state: %w", err)
	}
	data, err := codec.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding session state: %w", err)
	}
	defer secret.Zero(data)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("opening session file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("writing session file: %w", err)
	}
	return file.Close()
}
