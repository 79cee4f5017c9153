package core

import "time"

// Clock abstracts wall-clock access so PIT expiry and CS freshness can be
// driven by a fake tick source in tests instead of real sleeps (spec.md §5).
// The fragmenter's retransmit timers read time.Now directly and are not
// driven by it.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// GetClock is the clock the PIT, the MessageProcessor and the
// load-balanced-probe strategy read the current time from.
var GetClock Clock = realClock{}

// SetClock overrides the global clock. Tests restore the real clock via
// defer core.SetClock(core.NewRealClock()).
func SetClock(c Clock) { GetClock = c }

// NewRealClock returns the system wall clock.
func NewRealClock() Clock { return realClock{} }
