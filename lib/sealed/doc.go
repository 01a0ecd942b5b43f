// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed is the cipher layer of the session vault. A
// deployment has exactly one active key, and the key's text form
// decides which [Cipher] protects session records:
//
//   - A base64-encoded 32-byte key selects XChaCha20-Poly1305. The
//     record key is derived from it with HKDF-SHA256, and every
//     ciphertext carries a version byte authenticated as AAD.
//   - An "AGE-SECRET-KEY-1..." identity selects age X25519, with the
//     identity's own recipient as the only recipient.
//
// Key exports:
//
//   - [NewCipher] -- parse key text into a Cipher
//   - [GenerateKey] -- fresh key text for a [Kind], in a secret.Buffer
//   - [ParseKind] -- validate a configured cipher kind
//
// Ciphertext is raw bytes. Transport encoding (base64) belongs to the
// vault, so the same record can be stored as a file or pasted into an
// environment variable.
//
// Depends on lib/secret for key storage.
package sealed
