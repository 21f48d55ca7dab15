package clock

import (
	"testing"
	"time"
)

func TestNowMicrosMonotonic(t *testing.T) {
	c := New()
	prev := c.NowMicros()
	for range 1000 {
		now := c.NowMicros()
		if now < prev {
			t.Fatalf("clock went backwards: %d < %d", now, prev)
		}
		prev = now
	}
}

func TestSleepParksForMillisecondDurations(t *testing.T) {
	c := New()
	start := c.NowMicros()
	c.Sleep(5 * time.Millisecond)
	elapsed := c.NowMicros() - start
	if elapsed < 5000 {
		t.Errorf("Sleep(5ms) returned after %dus, want >= 5000us", elapsed)
	}
}

func TestSleepYieldsForSubMillisecondDurations(t *testing.T) {
	c := New()
	start := c.NowMicros()
	for range 100 {
		c.Sleep(100 * time.Microsecond)
	}
	elapsed := c.NowMicros() - start
	// 100 yields should complete far faster than 100 real 100us sleeps.
	if elapsed > 50_000 {
		t.Errorf("100 sub-ms sleeps took %dus, expected yields, not parks", elapsed)
	}
}
