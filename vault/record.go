// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/bureau-foundation/backscroll/lib/binhash"
)

// Record is an encrypted session record: the ciphertext of a framed,
// compressed session blob. It is opaque without the vault key.
type Record []byte

// Encode returns the base64 transport form of the record, suitable for
// copying between hosts or into a deployment secret.
func (r Record) Encode() string {
	return base64.StdEncoding.EncodeToString(r)
}

// Fingerprint returns a short BLAKE3 digest identifying the record in
// logs without revealing anything about its contents.
func (r Record) Fingerprint() string {
	return binhash.Sum(r).Short()
}

// DecodeRecord parses the base64 transport form. Surrounding whitespace
// is ignored. Decoding says nothing about whether the record decrypts.
func DecodeRecord(encoded string) (Record, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("decoding record: empty input")
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return Record(raw), nil
}
