// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Components that stamp results or measure durations take a Clock in
// their Config instead of calling time.Now directly. Production wiring
// passes Real(); tests pass Fake() and move time explicitly:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	pipeline, _ := scrape.New(scrape.Config{Clock: c, ...})
//	c.Advance(2 * time.Second)
package clock
