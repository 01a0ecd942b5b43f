// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Backscroll packages.
//
// [SocketDir] creates a short temporary directory for Unix domain
// sockets, whose paths are limited to 108 bytes. t.TempDir() paths can
// exceed that under deep test roots.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern so a test that waits on a goroutine fails instead of hanging.
//
// Helpers call t.Fatalf on failure rather than returning errors.
package testutil
