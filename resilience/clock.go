package resilience

import "time"

// Clock is the time source used by the retry, poll and limiter loops.
// Tests substitute a manual clock to make waits deterministic.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// RealClock is the wall clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// After waits for the duration to elapse and then sends the current time.
func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func clockOrDefault(c Clock) Clock {
	if c == nil {
		return RealClock{}
	}
	return c
}
