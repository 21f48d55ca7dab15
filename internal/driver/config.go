package driver

import (
	"fmt"
	"time"
)

// Config holds the driver parameters. It is fixed at construction; the
// driver reads no environment and parses no flags.
type Config struct {
	// Concurrency is the number of parallel workers (>= 1).
	Concurrency int

	// TargetRate is the intended steady-state arrival rate in items per
	// second. Zero means no iterations: Run performs setup and teardown
	// and returns an empty report.
	TargetRate float64

	// Duration is the overall test duration, warmup included.
	Duration time.Duration

	// Timeout is the in-queue TTL for scheduled arrivals and the latency
	// credited to missed iterations. Zero defaults to the worker cycle time.
	Timeout time.Duration

	// SkipWarmup disables the warmup phase.
	SkipWarmup bool
}

func (c Config) validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", c.Concurrency)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %s", c.Duration)
	}
	if c.TargetRate < 0 {
		return fmt.Errorf("target rate must be >= 0, got %f", c.TargetRate)
	}
	return nil
}

// timings are the values derived from the config once the workload's
// items-per-iteration is known. All in microseconds.
type timings struct {
	arrivalInterval int64 // between intended iteration starts
	workerCycle     int64 // nominal per-worker interval between starts
	timeout         int64 // queue TTL and missed-iteration latency
	warmup          int64
	duration        int64
}

func (c Config) derive(itemsPerIteration int) timings {
	t := timings{
		arrivalInterval: int64(1e6 * float64(itemsPerIteration) / c.TargetRate),
		duration:        c.Duration.Microseconds(),
	}
	if t.arrivalInterval < 1 {
		t.arrivalInterval = 1
	}
	t.workerCycle = t.arrivalInterval * int64(c.Concurrency)
	if c.Timeout > 0 {
		t.timeout = c.Timeout.Microseconds()
	} else {
		t.timeout = t.workerCycle
	}
	if !c.SkipWarmup {
		t.warmup = t.duration / 10
		if t.warmup > 10_000_000 {
			t.warmup = 10_000_000
		}
	}
	return t
}
