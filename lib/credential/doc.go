// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package credential looks up named secrets for Backscroll: the Matrix
// account password and, when the vault key is not kept in a key file,
// the vault key itself.
//
// A [Source] returns a fresh [secret.Buffer] on every lookup. The caller
// owns it and closes it as soon as the value has been used, so secrets
// spend as little time in memory as possible and rotated files are
// picked up without a restart.
//
// Three sources exist, usually combined with [Chain] in this order:
// [Systemd] ($CREDENTIALS_DIRECTORY, see https://systemd.io/CREDENTIALS/),
// [File] (a key=value file given with --credential-file) and [Env]
// (BACKSCROLL_-prefixed environment variables, for development).
package credential
