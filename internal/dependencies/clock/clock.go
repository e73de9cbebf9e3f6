package clock

import "time"

// Clock is the time source for token expiry and challenge timestamps
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to Clock
type Func func() time.Time

// Now calls f
func (f Func) Now() time.Time {
	return f()
}

// New returns the system clock, reporting UTC
func New() Clock {
	return Func(func() time.Time { return time.Now().UTC() })
}
