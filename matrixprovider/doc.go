// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package matrixprovider implements [scrape.Provider] over the Matrix
// client-server API.
//
// The session blob the vault protects is a CBOR-encoded [SessionState]:
// homeserver, user, device and access token. Authenticate first tries
// the stored token (verified with whoami) and falls back to a password
// login when the token is unknown to the server or belongs to another
// account. A fresh login reuses the stored device ID and writes the new
// state back to the session file for the pipeline to seal.
//
// Disconnect releases the token memory and idle connections but does
// not log out: logging out would revoke the very token that is about to
// be sealed for the next run. [Logout] is the separate, explicit way
// to revoke a stored session when it is retired.
package matrixprovider
