// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the Backscroll binaries.
//
// Three variables are injected at build time via -ldflags -X:
//
//	go build -ldflags "-X github.com/bureau-foundation/backscroll/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// [GitCommit], [BuildTime] and [Version] default to "unknown" and
// "0.1.0-dev" for development builds and tests. [Current] bundles them
// with the Go toolchain and the BLAKE3 digest of the running executable
// so that an operator can tell two deployed binaries apart even when
// both were built from a dirty tree.
package version
