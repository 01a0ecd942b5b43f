// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"bytes"
	"testing"
)

func TestRecordEncodeDecode(t *testing.T) {
	record := Record{0x01, 0x00, 0xff, 0x7f, 0x80}
	decoded, err := DecodeRecord(record.Encode())
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}
	if !bytes.Equal(decoded, record) {
		t.Errorf("DecodeRecord(Encode()) = %x, want %x", decoded, record)
	}

	// Pasted values usually carry a trailing newline.
	decoded, err = DecodeRecord("  " + record.Encode() + "\n")
	if err != nil {
		t.Fatalf("DecodeRecord with whitespace failed: %v", err)
	}
	if !bytes.Equal(decoded, record) {
		t.Error("whitespace changed the decoded record")
	}
}

func TestDecodeRecord_Invalid(t *testing.T) {
	for _, input := range []string{"", "   ", "not base64!"} {
		if _, err := DecodeRecord(input); err == nil {
			t.Errorf("DecodeRecord(%q) succeeded", input)
		}
	}
}

func TestRecordFingerprint(t *testing.T) {
	first := Record("one").Fingerprint()
	if len(first) != 12 {
		t.Errorf("Fingerprint() = %q, want 12 characters", first)
	}
	if first == Record("two").Fingerprint() {
		t.Error("different records share a fingerprint")
	}
	if first != Record("one").Fingerprint() {
		t.Error("fingerprint is not stable")
	}
}
