// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds sensitive bytes (vault keys, account passwords,
// access tokens, unsealed session blobs) outside the Go heap.
//
// A [Buffer] is an anonymous mmap region that is mlock'd against swap
// and marked MADV_DONTDUMP so it never lands in a core dump. Close
// zeroes the region before unmapping it. The garbage collector never
// sees the memory, so it cannot leave stray copies behind.
//
// Constructors:
//
//   - [New] -- zero-filled buffer of a given size
//   - [NewFromBytes] -- copy into protected memory, then zero the source
//   - [NewFromString] -- convenience for values that arrive as strings
//   - [ReadFromPath] -- key files, password files, or stdin ("-")
//
// [Zero] wipes heap slices that briefly held secret material, and
// [Buffer.Equal] compares in constant time.
//
// Depends on golang.org/x/sys/unix only.
package secret
