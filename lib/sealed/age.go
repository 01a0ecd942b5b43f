// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"fmt"
	"io"

	"filippo.io/age"
)

// ageCipher encrypts to the recipient of its own identity. The parsed
// identity lives on the heap; age offers no way to keep it elsewhere.
type ageCipher struct {
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
}

func newAgeCipher(text string) (*ageCipher, error) {
	identity, err := age.ParseX25519Identity(text)
	if err != nil {
		return nil, fmt.Errorf("sealed: invalid age private key: %w", err)
	}
	return &ageCipher{identity: identity, recipient: identity.Recipient()}, nil
}

func (c *ageCipher) Kind() Kind { return KindAge }

func (c *ageCipher) Seal(plaintext []byte) ([]byte, error) {
	if c.identity == nil {
		return nil, fmt.Errorf("sealed: age cipher is closed")
	}

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, c.recipient)
	if err != nil {
		return nil, fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing plaintext to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing age encryption: %w", err)
	}
	return ciphertext.Bytes(), nil
}

func (c *ageCipher) Open(ciphertext []byte) ([]byte, error) {
	if c.identity == nil {
		return nil, fmt.Errorf("sealed: age cipher is closed")
	}

	reader, err := age.Decrypt(bytes.NewReader(ciphertext), c.identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted plaintext: %w", err)
	}
	return plaintext, nil
}

// Close drops the identity reference so later calls fail loudly.
func (c *ageCipher) Close() error {
	c.identity = nil
	c.recipient = nil
	return nil
}
