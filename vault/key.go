// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/backscroll/lib/sealed"
	"github.com/bureau-foundation/backscroll/lib/secret"
)

// generateKey is replaced in tests to simulate a concurrent generator.
var generateKey = sealed.GenerateKey

// LoadKeyFile reads the vault key from path. When the file does not
// exist and generate is true, a new key of the given kind is created
// with mode 0600 and returned; every later call reads that same key.
// If another process creates the file first, its key is returned.
// A missing file with generate false is ErrMissingKey.
func LoadKeyFile(path string, generate bool, kind sealed.Kind) (*secret.Buffer, error) {
	if path == "" {
		return nil, ErrMissingKey
	}

	key, err := secret.ReadFromPath(path)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading key file %s: %w", path, err)
	}
	if !generate {
		return nil, fmt.Errorf("%w: %s does not exist", ErrMissingKey, path)
	}

	key, err = generateKey(kind)
	if err != nil {
		return nil, err
	}
	err = WriteKeyFile(path, key)
	if err == nil {
		return key, nil
	}
	key.Close()
	if !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	existing, err := secret.ReadFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file %s created concurrently: %w", path, err)
	}
	return existing, nil
}

// WriteKeyFile creates path with mode 0600. The key is written to a
// temporary file and linked into place, so path never holds a partial
// key. An existing path is never replaced; the error then wraps
// os.ErrExist.
func WriteKeyFile(path string, key *secret.Buffer) error {
	temporary, err := os.CreateTemp(filepath.Dir(path), ".vault-key-*.tmp")
	if err != nil {
		return fmt.Errorf("creating key file %s: %w", path, err)
	}
	temporaryPath := temporary.Name()
	defer os.Remove(temporaryPath)

	err = temporary.Chmod(0600)
	if err == nil {
		_, err = temporary.Write(key.Bytes())
	}
	if err == nil {
		_, err = temporary.Write([]byte{'\n'})
	}
	if err == nil {
		err = temporary.Sync()
	}
	if err != nil {
		temporary.Close()
		return fmt.Errorf("writing key file %s: %w", path, err)
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("closing key file %s: %w", path, err)
	}
	if err := os.Link(temporaryPath, path); err != nil {
		return fmt.Errorf("installing key file %s: %w", path, err)
	}
	return nil
}
