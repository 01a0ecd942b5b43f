// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/bureau-foundation/backscroll/lib/sealed"
	"github.com/bureau-foundation/backscroll/lib/secret"
)

// Outcome is the result of Unseal.
type Outcome int

const (
	// NoSession means there is no usable session; the provider must
	// authenticate from credentials.
	NoSession Outcome = iota

	// Unsealed means the previous session is at Handle.Path.
	Unsealed
)

func (o Outcome) String() string {
	switch o {
	case NoSession:
		return "no_session"
	case Unsealed:
		return "unsealed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Handle describes the plaintext session for the duration of one run.
type Handle struct {
	Outcome Outcome

	// Path is the transient plaintext location. It is set for both
	// outcomes: a provider that authenticates from scratch writes the
	// new session here for Seal to pick up.
	Path string

	// Cause is why a record that existed could not be unsealed. It is
	// nil when there was simply no record.
	Cause error
}

// Present reports whether Path holds a session from a previous run.
func (h Handle) Present() bool { return h.Outcome == Unsealed }

// Config configures a Vault.
type Config struct {
	// Cipher encrypts and decrypts records. Required; the vault does
	// not close it.
	Cipher sealed.Cipher

	// Store persists the sealed record. Required.
	Store Store

	// PlaintextPath is the transient location of the unsealed blob.
	// Required. Its directory should be private to the service user.
	PlaintextPath string

	// Compression is applied before encryption. The zero value is
	// CompressionNone; callers normally pass ParseCompression("").
	Compression Compression

	// KeepPlaintext skips the removal of a leftover plaintext session
	// in New. Record management opened beside a running daemon sets it,
	// because the file may be the daemon's live session.
	KeepPlaintext bool

	Logger *slog.Logger
}

// Vault seals and unseals the session. A Vault serves one run at a
// time; the pipeline's single-flight guard provides the exclusion.
type Vault struct {
	cipher        sealed.Cipher
	store         Store
	plaintextPath string
	compression   Compression
	logger        *slog.Logger

	// remove deletes the plaintext file; tests replace it.
	remove func(name string) error
}

// New validates the configuration and, unless KeepPlaintext is set,
// removes any plaintext session a previous process failed to clean up.
func New(config Config) (*Vault, error) {
	if config.Cipher == nil {
		return nil, ErrMissingKey
	}
	if config.Store == nil {
		return nil, errors.New("vault: store is required")
	}
	if config.PlaintextPath == "" {
		return nil, errors.New("vault: plaintext path is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	vault := &Vault{
		cipher:        config.Cipher,
		store:         config.Store,
		plaintextPath: config.PlaintextPath,
		compression:   config.Compression,
		logger:        logger,
		remove:        os.Remove,
	}

	if config.KeepPlaintext {
		return vault, nil
	}
	if _, err := os.Lstat(vault.plaintextPath); err == nil {
		logger.Warn("removing plaintext session left by a previous run",
			"path", vault.plaintextPath)
		if err := vault.removePlaintext(); err != nil {
			return nil, err
		}
	}
	return vault, nil
}

// Unseal decrypts the stored record into the plaintext file. It never
// fails: every problem degrades to NoSession.
func (v *Vault) Unseal() Handle {
	handle := Handle{Outcome: NoSession, Path: v.plaintextPath}

	// A stale file would otherwise be mistaken for this run's session.
	if err := v.removePlaintext(); err != nil {
		handle.Cause = err
		v.logger.Warn("unseal degraded to no session", "error", err)
		return handle
	}

	record, err := v.store.Load()
	if errors.Is(err, ErrNoRecord) {
		v.logger.Info("no sealed session, authentication starts from credentials")
		return handle
	}
	if err != nil {
		handle.Cause = err
		v.logger.Warn("unseal degraded to no session", "store", v.store.Path(), "error", err)
		return handle
	}

	if err := v.unsealTo(record, v.plaintextPath); err != nil {
		handle.Cause = err
		v.logger.Warn("unseal degraded to no session",
			"record", record.Fingerprint(),
			"error", err)
		if err := v.removePlaintext(); err != nil {
			v.logger.Error("removing partial plaintext session", "error", err)
		}
		return handle
	}

	handle.Outcome = Unsealed
	v.logger.Info("session unsealed", "record", record.Fingerprint())
	return handle
}

func (v *Vault) unsealTo(record Record, path string) error {
	blob, err := v.open(record)
	if err != nil {
		return err
	}
	defer blob.Close()

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating plaintext session file: %w", err)
	}
	if _, err := file.Write(blob.Bytes()); err != nil {
		file.Close()
		return fmt.Errorf("writing plaintext session file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing plaintext session file: %w", err)
	}
	return nil
}

// open decrypts and decompresses a record into protected memory.
func (v *Vault) open(record Record) (*secret.Buffer, error) {
	framed, err := v.cipher.Open(record)
	if err != nil {
		return nil, fmt.Errorf("decrypting record: %w", err)
	}
	defer secret.Zero(framed)

	blob, err := unframe(framed)
	if err != nil {
		return nil, fmt.Errorf("decompressing record: %w", err)
	}
	if len(blob) == 0 {
		return nil, errors.New("record holds an empty session")
	}
	// NewFromBytes zeroes blob, which may alias framed.
	return secret.NewFromBytes(blob)
}

// Seal encrypts the plaintext session, stores the record, and returns
// it. The plaintext file is removed whether or not sealing succeeds.
// Every error wraps ErrSealFailed.
func (v *Vault) Seal(handle Handle) (Record, error) {
	defer func() {
		if err := v.removePlaintext(); err != nil {
			v.logger.Error("removing plaintext session after seal", "error", err)
		}
	}()

	record, err := v.seal()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSealFailed, err)
	}

	v.logger.Info("session sealed",
		"record", record.Fingerprint(),
		"store", v.store.Path(),
		"fresh", !handle.Present(),
		"compression", v.compression.String())
	return record, nil
}

func (v *Vault) seal() (Record, error) {
	blob, err := os.ReadFile(v.plaintextPath)
	if err != nil {
		return nil, fmt.Errorf("reading plaintext session: %w", err)
	}
	defer secret.Zero(blob)
	if len(blob) == 0 {
		return nil, errors.New("plaintext session is empty")
	}

	framed, err := frame(blob, v.compression)
	if err != nil {
		return nil, err
	}
	ciphertext, err := v.cipher.Seal(framed)
	secret.Zero(framed)
	if err != nil {
		return nil, fmt.Errorf("encrypting session: %w", err)
	}

	record := Record(ciphertext)
	if err := v.store.Save(record); err != nil {
		return nil, err
	}
	return record, nil
}

// Discard removes the plaintext session without sealing it. Failed runs
// call Discard so the stored record stays as it was.
func (v *Vault) Discard(Handle) error {
	return v.removePlaintext()
}

// Export returns the stored record, or ErrNoRecord.
func (v *Vault) Export() (Record, error) {
	return v.store.Load()
}

// Import replaces the stored record after checking that it decrypts
// under this vault's key.
func (v *Vault) Import(record Record) error {
	blob, err := v.open(record)
	if err != nil {
		return fmt.Errorf("record does not open with this vault's key: %w", err)
	}
	blob.Close()
	return v.store.Save(record)
}

// Peek decrypts the stored record into protected memory without
// touching the plaintext file. The caller closes the buffer.
func (v *Vault) Peek() (*secret.Buffer, Record, error) {
	record, err := v.store.Load()
	if err != nil {
		return nil, nil, err
	}
	blob, err := v.open(record)
	if err != nil {
		return nil, record, err
	}
	return blob, record, nil
}

// Forget deletes the stored record, so the next run authenticates from
// credentials.
func (v *Vault) Forget() error {
	if err := v.store.Delete(); err != nil {
		return err
	}
	v.logger.Info("sealed session deleted", "store", v.store.Path())
	return nil
}

func (v *Vault) removePlaintext() error {
	if err := v.remove(v.plaintextPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing plaintext session: %w", err)
	}
	return nil
}
