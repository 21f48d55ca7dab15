// Package clock provides a monotonic microsecond clock for latency
// measurement and a sleep that degrades to a goroutine yield below
// one millisecond.
package clock

import (
	"runtime"
	"time"
)

// Clock reads elapsed time against a fixed monotonic base. Readings are
// microseconds since New was called, so they are unaffected by wall-clock
// adjustments.
type Clock struct {
	base time.Time
}

// New returns a Clock anchored at the current instant.
func New() *Clock {
	return &Clock{base: time.Now()}
}

// NowMicros returns the number of microseconds elapsed since the clock
// was created.
func (c *Clock) NowMicros() int64 {
	return time.Since(c.base).Microseconds()
}

// Sleep parks the calling goroutine for at least d when d is a millisecond
// or more. Shorter durations yield to other runnable goroutines instead of
// parking, since the runtime timer granularity makes a real sleep overshoot.
func (c *Clock) Sleep(d time.Duration) {
	if d >= time.Millisecond {
		time.Sleep(d)
		return
	}
	runtime.Gosched()
}

// Yield cedes the processor to other runnable goroutines.
func (c *Clock) Yield() {
	runtime.Gosched()
}
