// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the shared CBOR configuration for on-disk state.
//
// JSON is for external surfaces (the Matrix client-server API and the
// HTTP fetch endpoint). CBOR is for bytes that only Backscroll reads
// back, chiefly the Matrix session blob that the vault seals. The
// encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so the same
// session state always encodes to the same bytes.
//
//	data, err := codec.Marshal(state)
//	err = codec.Unmarshal(data, &state)
//
// Types implementing encoding.TextMarshaler (ref.UserID and friends)
// encode as CBOR text strings and decode through UnmarshalText, so
// identifiers are validated when a session blob is read back.
//
// Use `cbor` struct tags for CBOR-only types and `json` tags for types
// that cross both formats; never both on one field.
package codec
