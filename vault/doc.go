// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package vault keeps the account's session encrypted at rest.
//
// Between runs the session exists only as a sealed [Record] in a
// [Store]: the session blob is framed with a compression header,
// compressed, and encrypted by a [sealed.Cipher]. A run brackets its use
// of the session with [Vault.Unseal] and then exactly one of
// [Vault.Seal] (success) or [Vault.Discard] (failure). Between those
// calls the plaintext blob lives in a single transient file, mode 0600,
// which the session provider reads and may overwrite with a fresh
// session. Both Seal and Discard remove that file, and [New] removes
// one left behind by a crash.
//
// Unsealing never fails a run. A record that is missing, truncated,
// encrypted under another key, or otherwise unreadable degrades to
// [NoSession] and the provider logs in from scratch; the cause is kept
// on the [Handle] for logging.
//
// Two stores ship: [FileStore] writes the ciphertext to one file by
// atomic rename, and [SQLiteStore] keeps it as a single table row along
// with its fingerprint and seal time.
//
// The base64 form produced by [Record.Encode] is a transport encoding
// for moving records between hosts. It is independent of encryption.
package vault
