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
)

func fetchCommand() *cli.Command {
	var flags deployment
	return &cli.Command{
		Name:    "fetch",
		Summary: "Run one scrape and print the result as JSON",
		Description: "Unseal the session, read the newest history of every configured\n" +
			"channel, seal the session again, and print the result to stdout.\n" +
			"The run stops at the first channel that fails.",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("fetch", pflag.ContinueOnError)
			flags.register(flagSet)
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
			application, err := app.Open(flags.options(cfg, logger))
			if err != nil {
				return err
			}
			defer application.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			report, err := application.Pipeline.Execute(ctx)
			if err != nil {
				return err
			}
			if report.SealError != nil {
				fmt.Fprintf(os.Stderr, "warning: session not sealed, the next run will log in again: %v\n", report.SealError)
			}
			return cli.WriteJSON(report.Result)
		},
	}
}
