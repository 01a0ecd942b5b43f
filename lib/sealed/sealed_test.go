// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/bureau-foundation/backscroll/lib/secret"
)

func newTestCipher(t *testing.T, kind Kind) Cipher {
	t.Helper()
	key, err := GenerateKey(kind)
	if err != nil {
		t.Fatalf("GenerateKey(%s) error: %v", kind, err)
	}
	defer key.Close()

	cipher, err := NewCipher(key)
	if err != nil {
		t.Fatalf("NewCipher(%s) error: %v", kind, err)
	}
	t.Cleanup(func() { cipher.Close() })
	return cipher
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{input: "", want: KindSymmetric},
		{input: "xchacha20poly1305", want: KindSymmetric},
		{input: "age", want: KindAge},
		{input: "aes", wantErr: true},
	}
	for _, test := range tests {
		got, err := ParseKind(test.input)
		if test.wantErr {
			if err == nil {
				t.Errorf("ParseKind(%q) succeeded, want error", test.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseKind(%q) error: %v", test.input, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseKind(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestGenerateKey_Format(t *testing.T) {
	symmetric, err := GenerateKey(KindSymmetric)
	if err != nil {
		t.Fatalf("GenerateKey(symmetric) error: %v", err)
	}
	defer symmetric.Close()
	raw, err := base64.StdEncoding.DecodeString(symmetric.String())
	if err != nil {
		t.Fatalf("symmetric key is not base64: %v", err)
	}
	if len(raw) != SymmetricKeySize {
		t.Errorf("symmetric key decodes to %d bytes, want %d", len(raw), SymmetricKeySize)
	}

	ageKey, err := GenerateKey(KindAge)
	if err != nil {
		t.Fatalf("GenerateKey(age) error: %v", err)
	}
	defer ageKey.Close()
	if !strings.HasPrefix(ageKey.String(), "AGE-SECRET-KEY-1") {
		t.Errorf("age key = %q, want AGE-SECRET-KEY-1 prefix", ageKey.String())
	}
}

func TestGenerateKey_Unique(t *testing.T) {
	first, err := GenerateKey(KindSymmetric)
	if err != nil {
		t.Fatalf("GenerateKey error: %v", err)
	}
	defer first.Close()
	second, err := GenerateKey(KindSymmetric)
	if err != nil {
		t.Fatalf("GenerateKey error: %v", err)
	}
	defer second.Close()

	if first.String() == second.String() {
		t.Error("two generated keys are identical")
	}
}

func TestNewCipher_SelectsKind(t *testing.T) {
	for _, kind := range []Kind{KindSymmetric, KindAge} {
		cipher := newTestCipher(t, kind)
		if cipher.Kind() != kind {
			t.Errorf("NewCipher on %s key returned %s cipher", kind, cipher.Kind())
		}
	}
}

func TestNewCipher_InvalidKeys(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "not base64", key: "!!not-base64!!"},
		{name: "short symmetric key", key: base64.StdEncoding.EncodeToString([]byte("too short"))},
		{name: "malformed age identity", key: "AGE-SECRET-KEY-1NOTREALLY"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			key, err := secret.NewFromString(test.key)
			if err != nil {
				t.Fatalf("NewFromString error: %v", err)
			}
			defer key.Close()
			if _, err := NewCipher(key); err == nil {
				t.Errorf("NewCipher(%q) succeeded, want error", test.key)
			}
		})
	}

	if _, err := NewCipher(nil); err == nil {
		t.Error("NewCipher(nil) succeeded, want error")
	}
}

func TestSealOpen_RoundTrip(t *testing.T) {
	plaintexts := [][]byte{
		[]byte("session blob"),
		bytes.Repeat([]byte{0xA5}, 4096),
		{},
	}
	for _, kind := range []Kind{KindSymmetric, KindAge} {
		t.Run(string(kind), func(t *testing.T) {
			cipher := newTestCipher(t, kind)
			for _, plaintext := range plaintexts {
				ciphertext, err := cipher.Seal(plaintext)
				if err != nil {
					t.Fatalf("Seal error: %v", err)
				}
				if len(plaintext) > 0 && bytes.Contains(ciphertext, plaintext) {
					t.Error("ciphertext contains the plaintext")
				}
				opened, err := cipher.Open(ciphertext)
				if err != nil {
					t.Fatalf("Open error: %v", err)
				}
				if !bytes.Equal(opened, plaintext) {
					t.Errorf("Open() = %q, want %q", opened, plaintext)
				}
			}
		})
	}
}

func TestSeal_NonceIsRandom(t *testing.T) {
	cipher := newTestCipher(t, KindSymmetric)
	first, err := cipher.Seal([]byte("same"))
	if err != nil {
		t.Fatalf("Seal error: %v", err)
	}
	second, err := cipher.Seal([]byte("same"))
	if err != nil {
		t.Fatalf("Seal error: %v", err)
	}
	if bytes.Equal(first, second) {
		t.Error("sealing the same plaintext twice produced identical ciphertext")
	}
}

func TestOpen_WrongKey(t *testing.T) {
	for _, kind := range []Kind{KindSymmetric, KindAge} {
		t.Run(string(kind), func(t *testing.T) {
			sealer := newTestCipher(t, kind)
			other := newTestCipher(t, kind)

			ciphertext, err := sealer.Seal([]byte("secret"))
			if err != nil {
				t.Fatalf("Seal error: %v", err)
			}
			if _, err := other.Open(ciphertext); err == nil {
				t.Error("Open with the wrong key succeeded")
			}
		})
	}
}

func TestOpen_Tampered(t *testing.T) {
	cipher := newTestCipher(t, KindSymmetric)
	ciphertext, err := cipher.Seal([]byte("secret"))
	if err != nil {
		t.Fatalf("Seal error: %v", err)
	}

	t.Run("flipped body byte", func(t *testing.T) {
		tampered := bytes.Clone(ciphertext)
		tampered[len(tampered)-1] ^= 0xFF
		if _, err := cipher.Open(tampered); err == nil {
			t.Error("Open accepted a tampered ciphertext")
		}
	})

	t.Run("wrong version", func(t *testing.T) {
		tampered := bytes.Clone(ciphertext)
		tampered[0] = 0x7F
		if _, err := cipher.Open(tampered); err == nil {
			t.Error("Open accepted an unknown version")
		}
	})

	t.Run("truncated", func(t *testing.T) {
		if _, err := cipher.Open(ciphertext[:10]); err == nil {
			t.Error("Open accepted a truncated ciphertext")
		}
	})
}

func TestAgeCipher_ClosedFails(t *testing.T) {
	cipher := newTestCipher(t, KindAge)
	cipher.Close()
	if _, err := cipher.Seal([]byte("x")); err == nil {
		t.Error("Seal after Close succeeded")
	}
}
