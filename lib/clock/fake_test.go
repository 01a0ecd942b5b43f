// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeClock(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := Fake(start)

	if !c.Now().Equal(start) {
		t.Fatalf("Now() = %v, want %v", c.Now(), start)
	}

	c.Advance(90 * time.Second)
	if got := Since(c, start); got != 90*time.Second {
		t.Errorf("Since() = %v, want 90s", got)
	}

	earlier := start.Add(-time.Hour)
	c.Set(earlier)
	if !c.Now().Equal(earlier) {
		t.Errorf("Now() after Set = %v, want %v", c.Now(), earlier)
	}
}

func TestRealClockMovesForward(t *testing.T) {
	c := Real()
	first := c.Now()
	if Since(c, first) < 0 {
		t.Error("real clock went backwards")
	}
}
