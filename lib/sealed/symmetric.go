// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/bureau-foundation/backscroll/lib/secret"
)

// recordVersion is the first byte of every symmetric ciphertext and
// part of its AAD, so a flipped version byte fails authentication.
const recordVersion byte = 0x01

// recordOverhead is version + nonce + Poly1305 tag.
const recordOverhead = 1 + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead

// HKDF info and AAD domain. Changing either invalidates every sealed
// record.
var (
	hkdfInfoRecord = []byte("backscroll.session.record.v1")
	recordDomain   = []byte("backscroll.session.v1")
)

type symmetricCipher struct {
	recordKey *secret.Buffer
}

func newSymmetricCipher(text string) (*symmetricCipher, error) {
	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("sealed: symmetric key is not valid base64: %w", err)
	}
	defer secret.Zero(raw)
	if len(raw) != SymmetricKeySize {
		return nil, fmt.Errorf("sealed: symmetric key is %d bytes, want %d", len(raw), SymmetricKeySize)
	}

	derived := make([]byte, SymmetricKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, raw, nil, hkdfInfoRecord), derived); err != nil {
		return nil, fmt.Errorf("sealed: deriving record key: %w", err)
	}
	recordKey, err := secret.NewFromBytes(derived)
	if err != nil {
		return nil, fmt.Errorf("sealed: protecting record key: %w", err)
	}
	return &symmetricCipher{recordKey: recordKey}, nil
}

func (c *symmetricCipher) Kind() Kind { return KindSymmetric }

// Seal produces [version][nonce 24][ciphertext+tag].
func (c *symmetricCipher) Seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(c.recordKey.Bytes())
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	var nonce [chacha20poly1305.NonceSizeX]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generating random nonce: %w", err)
	}

	output := make([]byte, 1+len(nonce), recordOverhead+len(plaintext))
	output[0] = recordVersion
	copy(output[1:], nonce[:])
	return aead.Seal(output, nonce[:], plaintext, recordAAD(recordVersion)), nil
}

func (c *symmetricCipher) Open(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < recordOverhead {
		return nil, fmt.Errorf("sealed record is %d bytes, minimum is %d", len(ciphertext), recordOverhead)
	}
	if ciphertext[0] != recordVersion {
		return nil, fmt.Errorf("sealed record version %d is not supported (expected %d)", ciphertext[0], recordVersion)
	}

	aead, err := chacha20poly1305.NewX(c.recordKey.Bytes())
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}
	nonce := ciphertext[1 : 1+chacha20poly1305.NonceSizeX]
	body := ciphertext[1+chacha20poly1305.NonceSizeX:]

	plaintext, err := aead.Open(nil, nonce, body, recordAAD(ciphertext[0]))
	if err != nil {
		return nil, fmt.Errorf("AEAD decryption failed (wrong key or tampered record): %w", err)
	}
	return plaintext, nil
}

func (c *symmetricCipher) Close() error {
	return c.recordKey.Close()
}

func recordAAD(version byte) []byte {
	aad := make([]byte, 0, 1+len(recordDomain))
	aad = append(aad, version)
	return append(aad, recordDomain...)
}
