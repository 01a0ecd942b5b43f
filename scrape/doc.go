// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package scrape runs the channel history pipeline: unseal the stored
// session, authenticate through a [Provider], read the newest messages
// of every configured channel in order, release the connection, and
// seal the (possibly refreshed) session again.
//
// The pipeline is all or nothing. The first channel that cannot be
// resolved or read aborts the run with a [*ChannelError] naming it, and
// no messages from any channel are returned. Authentication outcomes
// surface as [ErrTwoFactorRequired] and [ErrAuthorizationDenied] so a
// caller can tell "supply a one-time code out of band" apart from
// "fix the credentials".
//
// Only a fully successful run seals the session. A failed run discards
// the plaintext and leaves the previously stored record untouched. A
// seal failure is logged but never costs the caller a result that was
// already collected.
//
// One run is in flight at a time; a concurrent [Pipeline.Run] returns
// [ErrBusy] immediately rather than queueing, because two runs would
// race on the single transient plaintext session.
package scrape
