// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint helpers shared by the Backscroll
// binaries: reporting a fatal error from run() before or without the
// structured logger, and choosing the exit status.
package process
