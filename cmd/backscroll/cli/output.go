// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/bureau-foundation/backscroll/lib/secret"
)

// NewCommandLogger returns a logger on stderr: text when stderr is a
// terminal, JSON when it is piped, matching the daemon's format.
func NewCommandLogger(level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return slog.New(slog.NewTextHandler(os.Stderr, options))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, options))
}

// WriteJSON writes value to stdout as indented JSON.
func WriteJSON(value any) error {
	return writeJSON(os.Stdout, value)
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// ExitError ends the process with Code and no extra message. The
// command has already reported its outcome.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode implements process.ExitCoder.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// ReadPassword prompts on stderr and reads a line from the terminal on
// stdin with echo disabled.
func ReadPassword(prompt string) (*secret.Buffer, error) {
	descriptor := int(os.Stdin.Fd())
	if !term.IsTerminal(descriptor) {
		return nil, fmt.Errorf("no terminal available for interactive password prompt (use --password-file)")
	}

	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(descriptor)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	if len(password) == 0 {
		return nil, fmt.Errorf("empty password")
	}

	buffer, err := secret.NewFromBytes(password)
	if err != nil {
		secret.Zero(password)
		return nil, err
	}
	return buffer, nil
}
