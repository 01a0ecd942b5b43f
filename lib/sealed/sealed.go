// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"

	"github.com/bureau-foundation/backscroll/lib/secret"
)

// Kind names a cipher construction. Kinds appear in configuration
// files and CLI flags.
type Kind string

const (
	// KindSymmetric is XChaCha20-Poly1305 under a 32-byte key.
	KindSymmetric Kind = "xchacha20poly1305"

	// KindAge is age with a single X25519 identity.
	KindAge Kind = "age"
)

// SymmetricKeySize is the length of a decoded symmetric key.
const SymmetricKeySize = 32

const agePrivateKeyPrefix = "AGE-SECRET-KEY-1"

// ParseKind validates a cipher kind name. The empty string selects
// KindSymmetric.
func ParseKind(name string) (Kind, error) {
	switch Kind(name) {
	case "", KindSymmetric:
		return KindSymmetric, nil
	case KindAge:
		return KindAge, nil
	default:
		return "", fmt.Errorf("unknown cipher kind %q (want %q or %q)", name, KindSymmetric, KindAge)
	}
}

// Cipher seals and opens session records under one deployment key.
// Implementations are safe for sequential use; the vault never calls
// them concurrently.
type Cipher interface {
	// Kind reports the construction in use.
	Kind() Kind

	// Seal encrypts plaintext and returns self-contained ciphertext.
	Seal(plaintext []byte) ([]byte, error)

	// Open authenticates and decrypts ciphertext produced by Seal
	// under the same key.
	Open(ciphertext []byte) ([]byte, error)

	// Close releases protected key material. Idempotent.
	Close() error
}

// NewCipher parses key text and returns the matching Cipher. The key
// is borrowed and not closed.
func NewCipher(key *secret.Buffer) (Cipher, error) {
	if key == nil || key.Len() == 0 {
		return nil, fmt.Errorf("sealed: key is empty")
	}

	text := strings.TrimSpace(key.String())
	if strings.HasPrefix(text, agePrivateKeyPrefix) {
		cipher, err := newAgeCipher(text)
		if err != nil {
			return nil, err
		}
		return cipher, nil
	}

	cipher, err := newSymmetricCipher(text)
	if err != nil {
		return nil, err
	}
	return cipher, nil
}

// GenerateKey returns new key text for kind in a secret.Buffer. The
// caller must Close the buffer.
func GenerateKey(kind Kind) (*secret.Buffer, error) {
	switch kind {
	case KindSymmetric:
		raw := make([]byte, SymmetricKeySize)
		if _, err := io.ReadFull(rand.Reader, raw); err != nil {
			return nil, fmt.Errorf("generating symmetric key: %w", err)
		}
		encoded := []byte(base64.StdEncoding.EncodeToString(raw))
		secret.Zero(raw)
		return secret.NewFromBytes(encoded)

	case KindAge:
		identity, err := age.GenerateX25519Identity()
		if err != nil {
			return nil, fmt.Errorf("generating age identity: %w", err)
		}
		// identity.String() lives on the heap until collected; the
		// buffer is the durable copy.
		return secret.NewFromString(identity.String())

	default:
		return nil, fmt.Errorf("sealed: cannot generate key for kind %q", kind)
	}
}
