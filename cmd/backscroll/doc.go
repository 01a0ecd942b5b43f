// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Backscroll is the operator CLI for a Backscroll deployment. It shares
// the daemon's configuration file and state directory:
//
//	backscroll keygen            generate a vault key
//	backscroll login             create a session with a typed password
//	backscroll fetch             run one scrape and print the result
//	backscroll record export     print the sealed session as base64
//	backscroll record import     store a base64 sealed session
//	backscroll record inspect    show session metadata, never the token
//	backscroll record forget     delete the sealed session
//	backscroll version           print build information
//
// Do not run fetch or login while backscroll-service is serving from
// the same state directory: each process guards only its own runs.
package main
