// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash fingerprints sealed session records with BLAKE3.
//
// A sealed record is safe to store but not something to print. Log
// lines and the CLI refer to a record by its fingerprint instead, which
// lets an operator confirm that the record a service just wrote is the
// one they exported, without copying ciphertext into log storage.
//
//   - [Sum] / [HashFile] -- 32-byte BLAKE3 digest of bytes or a file
//   - [FormatDigest] / [ParseDigest] -- canonical hex form
//   - [Short] -- 12-character prefix for log lines
//
// This package has no dependencies on other Backscroll packages.
package binhash
