// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated, immutable Matrix identifiers.
//
//   - [UserID] -- "@localpart:server", the account being scraped
//   - [RoomID] -- "!opaque:server", what alias resolution returns
//   - [RoomAlias] -- "#name:server", the human-facing channel handle
//   - [Channel] -- a configured channel handle, either an alias or a
//     room ID
//
// Identifiers are parsed once at the boundary (configuration, Matrix
// responses, the sealed session blob) and carried as value types after
// that. Each type implements encoding.TextMarshaler, so JSON and CBOR
// use the canonical string form. The zero value of every type is
// invalid; use IsZero to check.
package ref
