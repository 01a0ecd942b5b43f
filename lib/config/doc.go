// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads Backscroll configuration.
//
// Configuration comes from a single file named by the --config flag or
// the BACKSCROLL_CONFIG environment variable. There is no discovery and
// no fallback: the file is the single source of truth for non-secret
// settings. Secrets (the account password, a configured vault key) are
// named here and read through lib/credential.
//
// Files ending in .yaml or .yml are parsed as YAML. Files ending in
// .json or .jsonc may carry comments and trailing commas; they are
// normalized to strict JSON before decoding.
//
// The file may contain development, staging and production sections
// that override base values when the environment matches.
package config
