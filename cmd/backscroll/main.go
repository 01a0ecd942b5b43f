// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/backscroll/app"
	"github.com/bureau-foundation/backscroll/cmd/backscroll/cli"
	"github.com/bureau-foundation/backscroll/lib/config"
	"github.com/bureau-foundation/backscroll/lib/process"
	"github.com/bureau-foundation/backscroll/lib/version"
)

func main() {
	if err := root().Execute(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func root() *cli.Command {
	return &cli.Command{
		Name:        "backscroll",
		Description: "Backscroll reads the recent history of configured Matrix channels\nwith a session kept encrypted at rest.",
		Subcommands: []*cli.Command{
			keygenCommand(),
			loginCommand(),
			fetchCommand(),
			recordCommand(),
			versionCommand(),
		},
	}
}

// deployment holds the flags every command that touches the state
// directory shares.
type deployment struct {
	configPath     string
	credentialFile string
	debug          bool
}

func (d *deployment) register(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&d.configPath, "config", "c", "", "path to config file (default $"+config.EnvVar+")")
	flagSet.StringVar(&d.credentialFile, "credential-file", "", "path to credentials file (key=value format)")
	flagSet.BoolVar(&d.debug, "debug", false, "log at debug level")
}

func (d *deployment) logger() *slog.Logger {
	level := slog.LevelInfo
	if d.debug {
		level = slog.LevelDebug
	}
	return cli.NewCommandLogger(level)
}

func (d *deployment) config() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if d.configPath != "" {
		cfg, err = config.LoadFile(d.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func (d *deployment) options(cfg *config.Config, logger *slog.Logger) app.Options {
	return app.Options{
		Config:         cfg,
		CredentialFile: d.credentialFile,
		Logger:         logger,
	}
}

func versionCommand() *cli.Command {
	var full bool
	return &cli.Command{
		Name:    "version",
		Summary: "Print build information",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("version", pflag.ContinueOnError)
			flagSet.BoolVar(&full, "full", false, "include toolchain, platform and binary digest")
			return flagSet
		},
		Run: func(args []string) error {
			if full {
				fmt.Printf("backscroll %s\n", version.Full())
				return nil
			}
			fmt.Printf("backscroll %s\n", version.Info())
			return nil
		},
	}
}
