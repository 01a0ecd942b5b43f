// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists the sealed record between runs.
type Store interface {
	// Load returns the saved record, or ErrNoRecord.
	Load() (Record, error)

	// Save replaces the saved record.
	Save(Record) error

	// Delete removes the saved record. Deleting an absent record is
	// not an error.
	Delete() error

	// Path describes where the record lives, for log messages.
	Path() string
}

// FileStore keeps the record as raw ciphertext in a single file.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path. The parent directory
// must already exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load implements Store.
func (s *FileStore) Load() (Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("reading sealed record %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return nil, ErrNoRecord
	}
	return Record(data), nil
}

// Save implements Store. The record is written to a temporary file in
// the same directory and renamed into place, so a crash never leaves a
// truncated record behind.
func (s *FileStore) Save(record Record) error {
	temporary, err := os.CreateTemp(filepath.Dir(s.path), ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary record file: %w", err)
	}
	temporaryPath := temporary.Name()
	defer os.Remove(temporaryPath)

	if err := temporary.Chmod(0600); err != nil {
		temporary.Close()
		return fmt.Errorf("setting record file mode: %w", err)
	}
	if _, err := temporary.Write(record); err != nil {
		temporary.Close()
		return fmt.Errorf("writing record: %w", err)
	}
	if err := temporary.Sync(); err != nil {
		temporary.Close()
		return fmt.Errorf("syncing record: %w", err)
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("closing record file: %w", err)
	}
	if err := os.Rename(temporaryPath, s.path); err != nil {
		return fmt.Errorf("installing record at %s: %w", s.path, err)
	}
	return nil
}

// Delete implements Store.
func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing sealed record: %w", err)
	}
	return nil
}

// Path implements Store.
func (s *FileStore) Path() string { return s.path }
