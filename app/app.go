// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bureau-foundation/backscroll/lib/config"
	"github.com/bureau-foundation/backscroll/lib/credential"
	"github.com/bureau-foundation/backscroll/lib/sealed"
	"github.com/bureau-foundation/backscroll/lib/secret"
	"github.com/bureau-foundation/backscroll/matrixprovider"
	"github.com/bureau-foundation/backscroll/messaging"
	"github.com/bureau-foundation/backscroll/scrape"
	"github.com/bureau-foundation/backscroll/vault"
)

// DefaultRequestTimeout bounds each homeserver request.
const DefaultRequestTimeout = 30 * time.Second

// Options configures Open and OpenVault.
type Options struct {
	Config *config.Config

	// Credentials supplies the vault key (key_source "credential") and
	// the account password. Nil means credential.Standard(CredentialFile).
	Credentials credential.Source

	// CredentialFile is the key=value file used by the standard chain.
	CredentialFile string

	// Password, when non-nil, is used for login instead of looking the
	// password up in Credentials. The caller keeps ownership.
	Password *secret.Buffer

	Logger *slog.Logger
}

func (o Options) credentials() credential.Source {
	if o.Credentials != nil {
		return o.Credentials
	}
	return credential.Standard(o.CredentialFile)
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// App is an assembled deployment.
type App struct {
	Config   *config.Config
	Vault    *vault.Vault
	Client   *messaging.Client
	Provider *matrixprovider.Provider
	Pipeline *scrape.Pipeline

	vault  *VaultHandle
	logger *slog.Logger
}

// Open validates the configuration and builds every component.
func Open(options Options) (*App, error) {
	cfg := options.Config
	if cfg == nil {
		return nil, errors.New("app: configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := options.logger()
	credentials := options.credentials()

	handle, err := openVault(cfg, credentials, logger, false)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout:   DefaultRequestTimeout,
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
	}
	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Matrix.HomeserverURL,
		HTTPClient:    httpClient,
		Logger:        logger.With("component", "messaging"),
	})
	if err != nil {
		handle.Close()
		return nil, err
	}

	passwordSource := credentials
	if options.Password != nil {
		passwordSource = credential.Static{Value: options.Password}
	}
	provider, err := matrixprovider.New(matrixprovider.Config{
		Client:             client,
		Credentials:        passwordSource,
		PasswordCredential: cfg.Matrix.PasswordCredential,
		JoinChannels:       cfg.Matrix.JoinChannels,
		Logger:             logger.With("component", "matrixprovider"),
	})
	if err != nil {
		handle.Close()
		return nil, err
	}

	pipeline, err := scrape.New(scrape.Config{
		Provider:     provider,
		Vault:        handle.Vault,
		Account:      cfg.Matrix.UserID,
		Channels:     cfg.Matrix.Channels,
		HistoryLimit: cfg.Matrix.HistoryLimit,
		Logger:       logger.With("component", "scrape"),
	})
	if err != nil {
		handle.Close()
		return nil, err
	}

	return &App{
		Config:   cfg,
		Vault:    handle.Vault,
		Client:   client,
		Provider: provider,
		Pipeline: pipeline,
		vault:    handle,
		logger:   logger,
	}, nil
}

// CheckHomeserver asks the homeserver for its supported versions. The
// endpoint needs no token, so this checks reachability only.
func (a *App) CheckHomeserver(ctx context.Context) error {
	response, err := a.Client.ServerVersions(ctx)
	if err != nil {
		return err
	}
	if len(response.Versions) == 0 {
		return fmt.Errorf("homeserver %s reports no client-server API versions", a.Client.HomeserverURL())
	}
	a.logger.Info("homeserver reachable",
		"homeserver", a.Client.HomeserverURL(),
		"versions", response.Versions)
	return nil
}

// Store returns the backend holding the sealed record.
func (a *App) Store() vault.Store { return a.vault.Store() }

// Close releases the cipher's key material and the record store.
func (a *App) Close() error {
	a.Client.CloseIdleConnections()
	return a.vault.Close()
}

// VaultHandle is a vault opened without the rest of the deployment.
type VaultHandle struct {
	*vault.Vault
	cipher sealed.Cipher
	store  vault.Store
}

// Store returns the backend holding the sealed record.
func (h *VaultHandle) Store() vault.Store { return h.store }

// Close releases the cipher's key material and closes the store if it
// holds resources.
func (h *VaultHandle) Close() error {
	var errs []error
	if closer, ok := h.store.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	errs = append(errs, h.cipher.Close())
	return errors.Join(errs...)
}

// OpenVault builds only the key, cipher and vault. Only the state
// paths and vault section of the configuration are checked, so record
// management works before the Matrix section is complete. A plaintext
// session on disk is left alone: it may belong to a running daemon.
func OpenVault(options Options) (*VaultHandle, error) {
	cfg := options.Config
	if cfg == nil {
		return nil, errors.New("app: configuration is required")
	}
	return openVault(cfg, options.credentials(), options.logger(), true)
}

// openVault builds the vault. keepPlaintext is set for record
// management, which may run beside a daemon that owns the plaintext.
func openVault(cfg *config.Config, credentials credential.Source, logger *slog.Logger, keepPlaintext bool) (*VaultHandle, error) {
	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}
	compression, err := vault.ParseCompression(cfg.Vault.Compression)
	if err != nil {
		return nil, err
	}

	key, err := LoadKey(cfg, credentials)
	if err != nil {
		return nil, err
	}
	cipher, err := sealed.NewCipher(key)
	key.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vault.ErrMissingKey, err)
	}

	store, err := OpenStore(cfg)
	if err != nil {
		cipher.Close()
		return nil, err
	}
	handle := &VaultHandle{cipher: cipher, store: store}

	handle.Vault, err = vault.New(vault.Config{
		Cipher:        cipher,
		Store:         store,
		PlaintextPath: cfg.PlaintextSessionPath(),
		Compression:   compression,
		KeepPlaintext: keepPlaintext,
		Logger:        logger.With("component", "vault"),
	})
	if err != nil {
		handle.Close()
		return nil, err
	}
	return handle, nil
}

// OpenStore opens the record backend named by vault.store. An empty
// value selects the file store.
func OpenStore(cfg *config.Config) (vault.Store, error) {
	switch cfg.Vault.Store {
	case config.StoreFile, "":
		return vault.NewFileStore(cfg.SessionRecordPath()), nil
	case config.StoreSQLite:
		return vault.OpenSQLiteStore(cfg.SessionDatabasePath())
	default:
		return nil, fmt.Errorf("unknown vault store %q", cfg.Vault.Store)
	}
}

// LoadKey reads the vault key from the configured source. The caller
// closes the returned buffer.
func LoadKey(cfg *config.Config, credentials credential.Source) (*secret.Buffer, error) {
	switch cfg.Vault.KeySource {
	case config.KeySourceFile:
		kind, err := sealed.ParseKind(cfg.Vault.Cipher)
		if err != nil {
			return nil, err
		}
		return vault.LoadKeyFile(cfg.Vault.KeyFile, cfg.Vault.GenerateKey, kind)
	case config.KeySourceCredential:
		key, err := credentials.Lookup(cfg.Vault.KeyCredential)
		if errors.Is(err, credential.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", vault.ErrMissingKey, err)
		}
		return key, err
	default:
		return nil, fmt.Errorf("%w: unknown key source %q", vault.ErrMissingKey, cfg.Vault.KeySource)
	}
}
