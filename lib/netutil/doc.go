// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds the small HTTP helpers shared by the Matrix
// client and the fetch service.
//
// Every JSON body read through this package is bounded at MaxBodySize so
// that a misbehaving homeserver cannot exhaust memory with an oversized
// history page. Writes go through WriteJSON, which sets the content type
// and status together.
package netutil
