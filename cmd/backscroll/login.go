// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/backscroll/app"
	"github.com/bureau-foundation/backscroll/cmd/backscroll/cli"
	"github.com/bureau-foundation/backscroll/lib/secret"
)

func loginCommand() *cli.Command {
	var flags deployment
	var passwordFile string
	var fresh bool
	return &cli.Command{
		Name:    "login",
		Summary: "Create the sealed session with a typed password",
		Description: "Log the configured account in and seal the resulting session, so\n" +
			"the daemon can run without a password credential. The password is\n" +
			"read from the terminal unless --password-file is given. A valid\n" +
			"existing session is kept unless --fresh is set.",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("login", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.StringVar(&passwordFile, "password-file", "", "read the password from this file (- for stdin)")
			flagSet.BoolVar(&fresh, "fresh", false, "forget the existing session before logging in")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			logger := flags.logger()
			cfg, err := flags.config()
			if err != nil {
				return err
			}

			var password *secret.Buffer
			if passwordFile != "" {
				password, err = secret.ReadFromPath(passwordFile)
			} else {
				password, err = cli.ReadPassword(fmt.Sprintf("Password for %s: ", cfg.Matrix.UserID))
			}
			if err != nil {
				return err
			}
			defer password.Close()

			options := flags.options(cfg, logger)
			options.Password = password
			application, err := app.Open(options)
			if err != nil {
				return err
			}
			defer application.Close()

			if fresh {
				if err := application.Vault.Forget(); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			report, err := application.Pipeline.Authenticate(ctx)
			if err != nil {
				return err
			}
			if report.SealError != nil {
				return fmt.Errorf("logged in but the session could not be sealed: %w", report.SealError)
			}
			if report.FreshSession {
				fmt.Fprintf(os.Stderr, "Logged in as %s\n", cfg.Matrix.UserID)
			} else {
				fmt.Fprintf(os.Stderr, "Existing session for %s is valid\n", cfg.Matrix.UserID)
			}
			fmt.Fprintf(os.Stderr, "Session sealed to %s (%s)\n", application.Store().Path(), report.Record.Fingerprint())
			return nil
		},
	}
}
