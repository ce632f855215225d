// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for SFS timestamp
// stamping (atime/mtime/ctime), so tests can verify timestamp
// monotonicity without real-time flakiness.
//
// Production code accepts a Clock field instead of calling time.Now
// directly. In production, Real() provides the standard library
// behavior. In tests, Fake() provides a deterministic clock that only
// advances when Advance is called.
package clock

import "time"

// Clock abstracts the single time operation SFS needs.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
