package engine

import "time"

// Clock abstracts time.Now() so that "today" can be pinned in tests.
// The Generator stamps calendars with it and the report measures the
// distance to the predicted date from it.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}
