// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scrape

import (
	"context"
	"fmt"
	"time"
)

// AuthStatus is the outcome of Provider.Authenticate.
type AuthStatus int

const (
	Authorized AuthStatus = iota
	NeedsSecondFactor
	Rejected
)

func (s AuthStatus) String() string {
	switch s {
	case Authorized:
		return "authorized"
	case NeedsSecondFactor:
		return "needs_second_factor"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("AuthStatus(%d)", int(s))
	}
}

// SessionFile locates the plaintext session for one run. When Present
// is false there is no previous session; the provider authenticates
// from credentials and writes the new session to Path so that the
// pipeline can seal it.
type SessionFile struct {
	Path    string
	Present bool
}

// RawMessage is one message as the provider returns it.
type RawMessage struct {
	ID        string
	Text      *string
	Timestamp time.Time
	SenderID  *string
}

// Provider is the messaging network as the pipeline sees it.
type Provider interface {
	// Authenticate establishes an authenticated connection for account.
	// A non-nil error is a transport or local failure; refusals are
	// reported through the status.
	Authenticate(ctx context.Context, account string, session SessionFile) (AuthStatus, error)

	// Resolve maps a channel identifier to a provider handle. A
	// channel that does not exist yields an error wrapping
	// ErrChannelNotFound.
	Resolve(ctx context.Context, channel string) (string, error)

	// FetchHistory returns up to limit of the newest messages of the
	// resolved channel, in provider order.
	FetchHistory(ctx context.Context, handle string, limit int) ([]RawMessage, error)

	// Disconnect releases the connection. It is called once at the end
	// of every run that reached authentication, whatever the outcome.
	Disconnect() error
}
