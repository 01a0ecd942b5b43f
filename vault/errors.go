// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import "errors"

var (
	// ErrMissingKey means no encryption key is configured or available.
	// It is a configuration error: the vault refuses to start.
	ErrMissingKey = errors.New("vault: encryption key is not configured")

	// ErrSealFailed wraps every failure of Seal. The session the run
	// used is lost, but the run's result is not.
	ErrSealFailed = errors.New("vault: sealing the session failed")

	// ErrNoRecord is returned by Store.Load when nothing has been saved.
	ErrNoRecord = errors.New("vault: no sealed record")
)
