// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/backscroll/lib/secret"
)

// ErrNotFound is returned when a source has no value for a name.
var ErrNotFound = errors.New("credential not found")

// Source looks up a named secret. The returned buffer is owned by the
// caller. A missing credential yields an error wrapping ErrNotFound;
// any other error means the source itself is broken.
type Source interface {
	Lookup(name string) (*secret.Buffer, error)
}

// normalize maps a credential name to its key=value and environment
// form: matrix-password -> MATRIX_PASSWORD.
func normalize(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// Env reads credentials from environment variables named Prefix plus
// the normalized credential name.
type Env struct {
	Prefix string
}

// Lookup implements Source.
func (s Env) Lookup(name string) (*secret.Buffer, error) {
	envName := s.Prefix + normalize(name)
	value := os.Getenv(envName)
	if value == "" {
		return nil, fmt.Errorf("environment variable %s: %w", envName, ErrNotFound)
	}
	return secret.NewFromString(value)
}

// File reads credentials from a key=value file. Lines starting with #
// are comments; blank lines are ignored. The file is re-read on every
// lookup.
//
//	MATRIX_PASSWORD=correct horse battery staple
//	VAULT_KEY=3q2+7w...
type File struct {
	Path string
}

// Lookup implements Source.
func (s File) Lookup(name string) (*secret.Buffer, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading credential file: %w", err)
	}
	defer secret.Zero(data)

	key := normalize(name)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		index := bytes.IndexByte(line, '=')
		if index <= 0 {
			continue
		}
		if string(bytes.TrimSpace(line[:index])) != key {
			continue
		}
		value := bytes.TrimSpace(line[index+1:])
		if len(value) == 0 {
			break
		}
		return secret.NewFromBytes(bytes.Clone(value))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning credential file: %w", err)
	}
	return nil, fmt.Errorf("%s in %s: %w", key, s.Path, ErrNotFound)
}

// Systemd reads credentials from systemd's credential directory, one
// file per credential named exactly as the credential.
type Systemd struct {
	// Directory defaults to $CREDENTIALS_DIRECTORY when empty.
	Directory string
}

// Lookup implements Source.
func (s Systemd) Lookup(name string) (*secret.Buffer, error) {
	directory := s.Directory
	if directory == "" {
		directory = os.Getenv("CREDENTIALS_DIRECTORY")
	}
	if directory == "" {
		return nil, fmt.Errorf("no systemd credential directory: %w", ErrNotFound)
	}
	if name != filepath.Base(name) {
		return nil, fmt.Errorf("credential name %q contains a path separator", name)
	}

	buffer, err := secret.ReadFromPath(filepath.Join(directory, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("systemd credential %s: %w", name, ErrNotFound)
	}
	return buffer, err
}

// Static serves a single value obtained some other way, such as an
// interactive prompt, under every name. Lookup returns a copy; the
// caller still closes Value.
type Static struct {
	Value *secret.Buffer
}

// Lookup implements Source.
func (s Static) Lookup(name string) (*secret.Buffer, error) {
	if s.Value == nil || s.Value.Len() == 0 {
		return nil, fmt.Errorf("static credential %q: %w", name, ErrNotFound)
	}
	return secret.NewFromBytes(bytes.Clone(s.Value.Bytes()))
}

// Chain tries each source in order and returns the first value found.
// A source error other than ErrNotFound stops the search.
type Chain []Source

// Lookup implements Source.
func (c Chain) Lookup(name string) (*secret.Buffer, error) {
	for _, source := range c {
		buffer, err := source.Lookup(name)
		if err == nil {
			return buffer, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("credential %q: %w", name, ErrNotFound)
}

// Standard builds the chain used by the Backscroll binaries. The file
// source is included only when path is non-empty.
func Standard(path string) Chain {
	chain := Chain{Systemd{}}
	if path != "" {
		chain = append(chain, File{Path: path})
	}
	return append(chain, Env{Prefix: "BACKSCROLL_"})
}
