// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the scrape pipeline over HTTP.
//
// Every GET /v1/fetch is one pipeline run: unseal, authenticate, read
// each configured channel, seal. The response is the Scrape Result as
// a JSON object keyed by channel. Failures map to a status code and a
// machine-readable error code:
//
//	403 two_factor_required  the account needs a second factor
//	401 unauthorized         the homeserver rejected the credentials
//	500 channel_failed       a channel could not be resolved or read
//	409 busy                 another fetch is in flight
//	500 internal             anything else
//
// The server listens on a Unix socket, a TCP address, or both. It
// signals readiness to systemd through NOTIFY_SOCKET when present.
package server
