// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/backscroll/cmd/backscroll/cli"
	"github.com/bureau-foundation/backscroll/lib/sealed"
	"github.com/bureau-foundation/backscroll/vault"
)

func keygenCommand() *cli.Command {
	var kindName string
	var outPath string
	return &cli.Command{
		Name:    "keygen",
		Summary: "Generate a vault encryption key",
		Description: "Generate a new vault key. Symmetric keys are 32 random bytes in\n" +
			"base64; age keys are X25519 identities. The daemon recognizes either\n" +
			"format. A key file is never overwritten.",
		Examples: []cli.Example{
			{Description: "Write a key where the default config expects it", Command: "backscroll keygen --out ~/.local/state/backscroll/vault.key"},
			{Description: "Print an age identity for a credential store", Command: "backscroll keygen --kind age"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
			flagSet.StringVar(&kindName, "kind", string(sealed.KindSymmetric), "key kind: xchacha20poly1305 or age")
			flagSet.StringVarP(&outPath, "out", "o", "-", "key file to create, or - for stdout")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			kind, err := sealed.ParseKind(kindName)
			if err != nil {
				return err
			}
			key, err := sealed.GenerateKey(kind)
			if err != nil {
				return err
			}
			defer key.Close()

			if outPath == "-" {
				if _, err := os.Stdout.Write(key.Bytes()); err != nil {
					return err
				}
				_, err := os.Stdout.Write([]byte{'\n'})
				return err
			}
			if err := vault.WriteKeyFile(outPath, key); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Wrote %s key to %s\n", kind, outPath)
			return nil
		},
	}
}
