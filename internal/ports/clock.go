package ports

import "time"

// Clock abstracts wall-clock time so the tick-driven engines can be
// tested deterministically. Production code uses SystemClock; tests
// inject a fake that advances manually.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// SystemClock is the real clock backed by time.Now.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
