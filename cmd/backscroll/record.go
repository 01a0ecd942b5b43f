// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/backscroll/app"
	"github.com/bureau-foundation/backscroll/cmd/backscroll/cli"
	"github.com/bureau-foundation/backscroll/lib/codec"
	"github.com/bureau-foundation/backscroll/matrixprovider"
	"github.com/bureau-foundation/backscroll/vault"
)

func recordCommand() *cli.Command {
	return &cli.Command{
		Name:    "record",
		Summary: "Manage the sealed session record",
		Description: "Move, examine and delete the sealed session. The record is only\n" +
			"readable with the vault key; moving it to another host also\n" +
			"requires that host to use the same key.",
		Subcommands: []*cli.Command{
			recordExportCommand(),
			recordImportCommand(),
			recordInspectCommand(),
			recordForgetCommand(),
		},
	}
}

// withVault loads the configuration and opens only the vault.
func withVault(flags *deployment, run func(*app.VaultHandle) error) error {
	cfg, err := flags.config()
	if err != nil {
		return err
	}
	handle, err := app.OpenVault(flags.options(cfg, flags.logger()))
	if err != nil {
		return err
	}
	defer handle.Close()
	return run(handle)
}

func recordExportCommand() *cli.Command {
	var flags deployment
	return &cli.Command{
		Name:    "export",
		Summary: "Print the sealed session in base64",
		Examples: []cli.Example{
			{Description: "Copy the session to another host", Command: "backscroll record export | ssh other backscroll record import"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("export", pflag.ContinueOnError)
			flags.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			return withVault(&flags, func(handle *app.VaultHandle) error {
				return exportRecord(handle.Vault, os.Stdout)
			})
		},
	}
}

func exportRecord(sessionVault *vault.Vault, w io.Writer) error {
	record, err := sessionVault.Export()
	if errors.Is(err, vault.ErrNoRecord) {
		return fmt.Errorf("no sealed session to export; run 'backscroll login' first")
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, record.Encode())
	return err
}

func recordImportCommand() *cli.Command {
	var flags deployment
	var inputPath string
	return &cli.Command{
		Name:    "import",
		Summary: "Store a base64 sealed session",
		Description: "Read a record in the form 'record export' prints and store it as the\n" +
			"sealed session. The record must decrypt with this deployment's key.",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("import", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.StringVarP(&inputPath, "file", "f", "-", "file to read, or - for stdin")
			return flagSet
		},
		Run: func(args []string) error {
			input := io.Reader(os.Stdin)
			if inputPath != "-" {
				file, err := os.Open(inputPath)
				if err != nil {
					return err
				}
				defer file.Close()
				input = file
			}
			return withVault(&flags, func(handle *app.VaultHandle) error {
				record, err := importRecord(handle.Vault, input)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Imported session record %s\n", record.Fingerprint())
				return nil
			})
		},
	}
}

func importRecord(sessionVault *vault.Vault, r io.Reader) (vault.Record, error) {
	data, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}
	record, err := vault.DecodeRecord(string(data))
	if err != nil {
		return nil, err
	}
	if err := sessionVault.Import(record); err != nil {
		return nil, err
	}
	return record, nil
}

// recordInfo is what inspect reports. The access token is never
// included.
type recordInfo struct {
	Fingerprint string `json:"fingerprint"`
	SealedBytes int    `json:"sealed_bytes"`
	BlobBytes   int    `json:"blob_bytes"`
	Homeserver  string `json:"homeserver"`
	UserID      string `json:"user_id"`
	DeviceID    string `json:"device_id"`
	SealedAt    string `json:"sealed_at,omitempty"`
	Diagnostic  string `json:"cbor_diagnostic,omitempty"`
}

func recordInspectCommand() *cli.Command {
	var flags deployment
	var diagnose bool
	return &cli.Command{
		Name:    "inspect",
		Summary: "Show sealed session metadata",
		Description: "Decrypt the sealed session in memory and print who it belongs to.\n" +
			"Nothing is written to disk and the access token is never shown.",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.BoolVar(&diagnose, "diagnose", false, "include the CBOR diagnostic notation of the redacted session")
			return flagSet
		},
		Run: func(args []string) error {
			return withVault(&flags, func(handle *app.VaultHandle) error {
				info, err := inspectRecord(handle.Vault, diagnose)
				if err != nil {
					return err
				}
				// Only the database backend records when it was sealed.
				if store, ok := handle.Store().(*vault.SQLiteStore); ok {
					if sealedAt, err := store.SealedAt(); err == nil {
						info.SealedAt = sealedAt.Format(time.RFC3339)
					}
				}
				return cli.WriteJSON(info)
			})
		},
	}
}

func inspectRecord(sessionVault *vault.Vault, diagnose bool) (*recordInfo, error) {
	blob, record, err := sessionVault.Peek()
	if errors.Is(err, vault.ErrNoRecord) {
		return nil, fmt.Errorf("no sealed session; run 'backscroll login' first")
	}
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	state, err := matrixprovider.DecodeState(blob.Bytes())
	if err != nil {
		return nil, err
	}
	info := &recordInfo{
		Fingerprint: record.Fingerprint(),
		SealedBytes: len(record),
		BlobBytes:   blob.Len(),
		Homeserver:  state.Homeserver,
		UserID:      state.UserID.String(),
		DeviceID:    state.DeviceID,
	}

	if diagnose {
		redacted := *state
		redacted.AccessToken = "<redacted>"
		encoded, err := codec.Marshal(&redacted)
		if err != nil {
			return nil, err
		}
		info.Diagnostic, err = codec.Diagnose(encoded)
		if err != nil {
			return nil, err
		}
	}
	return info, nil
}

func recordForgetCommand() *cli.Command {
	var flags deployment
	var logout bool
	return &cli.Command{
		Name:    "forget",
		Summary: "Delete the sealed session",
		Description: "Delete the sealed session. The next run logs in from the password\n" +
			"credential. Without --logout the session stays valid on the\n" +
			"homeserver; with it, the token is revoked first and its device\n" +
			"disappears from the account.",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("forget", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.BoolVar(&logout, "logout", false, "revoke the session on the homeserver before deleting it")
			return flagSet
		},
		Run: func(args []string) error {
			logger := flags.logger()
			return withVault(&flags, func(handle *app.VaultHandle) error {
				ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				httpClient := &http.Client{Timeout: app.DefaultRequestTimeout}
				return forgetRecord(ctx, handle.Vault, logout, httpClient, logger)
			})
		},
	}
}

// forgetRecord deletes the stored record, first revoking its token when
// logout is set. A failed logout keeps the record so it can be retried.
func forgetRecord(ctx context.Context, sessionVault *vault.Vault, logout bool, httpClient *http.Client, logger *slog.Logger) error {
	if logout {
		blob, _, err := sessionVault.Peek()
		if errors.Is(err, vault.ErrNoRecord) {
			return fmt.Errorf("no sealed session to log out")
		}
		if err != nil {
			return err
		}
		state, err := matrixprovider.DecodeState(blob.Bytes())
		blob.Close()
		if err != nil {
			return err
		}
		if err := matrixprovider.Logout(ctx, state, httpClient, logger); err != nil {
			return fmt.Errorf("logging out (the sealed session was kept): %w", err)
		}
	}
	return sessionVault.Forget()
}
