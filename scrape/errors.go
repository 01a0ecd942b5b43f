// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scrape

import (
	"errors"
	"fmt"
)

var (
	// ErrTwoFactorRequired means the account needs an authentication
	// step beyond the configured password.
	ErrTwoFactorRequired = errors.New("scrape: second authentication factor required")

	// ErrAuthorizationDenied means the provider rejected the account.
	ErrAuthorizationDenied = errors.New("scrape: authorization denied")

	// ErrBusy means another run is in progress.
	ErrBusy = errors.New("scrape: a run is already in progress")

	// ErrChannelNotFound is wrapped by providers when a channel does
	// not exist or is not visible to the account.
	ErrChannelNotFound = errors.New("channel not found")
)

// Stage names the per-channel step that failed.
type Stage string

const (
	StageResolve Stage = "resolve"
	StageFetch   Stage = "fetch"
)

// ChannelError is the single aggregate error of a run aborted by a
// channel failure.
type ChannelError struct {
	Channel string
	Stage   Stage
	Err     error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("channel %s: %s failed: %v", e.Channel, e.Stage, e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }
