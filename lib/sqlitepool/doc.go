// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens SQLite databases with the pragmas Backscroll
// uses for local state.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool. Callers [Pool.Take]
// a connection, perform work, and [Pool.Put] it back. Connections are
// not safe for concurrent use.
//
// Every connection is initialized with:
//
//   - journal_mode=WAL: readers never block the writer.
//   - synchronous=FULL: a committed sealed record survives power loss,
//     not only a process crash.
//   - busy_timeout=5000: wait for a write lock instead of failing
//     immediately with SQLITE_BUSY.
//   - temp_store=MEMORY: temporary tables never reach the disk.
//   - secure_delete=ON: deleted pages are overwritten, so a forgotten
//     record does not linger in the free list.
//
// The package exposes the zombiezen types directly. Callers write SQL
// and use sqlitex.Execute and sqlitex.ImmediateTransaction.
package sqlitepool
