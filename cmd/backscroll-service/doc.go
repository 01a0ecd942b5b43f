// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Backscroll-service is the scrape daemon. It serves GET /v1/fetch on a
// TCP address or Unix socket; each request unseals the stored Matrix
// session, reads the newest history of every configured channel, and
// seals the session again. Logs are JSON on stderr.
//
// Secrets never come from the config file. The account password and,
// with vault.key_source "credential", the vault key are read from the
// systemd credentials directory, then the --credential-file key=value
// file, then BACKSCROLL_-prefixed environment variables.
package main
