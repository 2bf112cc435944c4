// Package clock isolates wall-clock reads behind a small interface with
// a real and a frozen implementation. No other package imports it: the
// catalog's timestamps (folder-action decided_at, classification
// classified_at) are read from time.Now directly.
package clock

import "time"

// Clock returns the current time. The zero value of Real is usable.
type Clock interface {
	Now() time.Time
}

// Real is the production Clock, backed by time.Now.
type Real struct{}

func (Real) Now() time.Time { return time.Now().UTC() }

// Frozen is a test Clock that always returns the same instant.
type Frozen struct {
	At time.Time
}

func (f Frozen) Now() time.Time { return f.At }
