// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command framework behind the backscroll
// operator CLI.
//
// A [Command] has a name, a lazily built [pflag.FlagSet], and either a
// Run function or nested Subcommands. [Command.Execute] parses flags,
// routes to subcommands, and prints help. Unknown commands and flags
// get a "did you mean" suggestion when a known name is within edit
// distance 3.
//
// Output helpers: [NewCommandLogger] picks text or JSON logging by
// whether stderr is a terminal, [WriteJSON] writes indented JSON to
// stdout, and [ReadPassword] prompts on the terminal with echo off.
package cli
