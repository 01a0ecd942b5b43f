// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging wraps the part of the Matrix client-server API that
// Backscroll reads through.
//
// [Client] is unauthenticated: it holds the homeserver URL and HTTP
// transport and turns a password login into a [Session], or rebuilds a
// Session from a stored access token with [Client.SessionFromToken].
//
// [Session] carries the access token in a [secret.Buffer] (locked
// against swap, excluded from core dumps). It can verify itself with
// WhoAmI, resolve room aliases, join rooms, and page backwards through a
// room's timeline with RoomMessages. Callers must Close a Session to
// release the protected token memory.
//
// API errors are returned as [*MatrixError] carrying the Matrix error
// code and HTTP status. A login that the homeserver answers with a
// user-interactive authentication challenge keeps the offered flows on
// the error; [NeedsSecondFactor] reports whether the account requires a
// stage beyond the password. Request URLs are built by string
// concatenation with url.PathEscape on each identifier, so aliases
// containing reserved characters are encoded exactly once.
package messaging
