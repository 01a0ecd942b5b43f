// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package app assembles a Backscroll deployment from its configuration:
// the vault key and cipher, the session vault, the Matrix client and
// provider, and the scrape pipeline. Both binaries build through here so
// the daemon and the operator CLI always agree on paths, key handling
// and compression.
//
// Composition is plain constructor calls in dependency order. [Open]
// builds everything; [OpenVault] builds only the vault, for commands
// that manage the sealed record without talking to the homeserver.
package app
