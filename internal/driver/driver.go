// Package driver runs a workload open loop: an arrival scheduler feeds a
// bounded queue of intended start times at the target rate, and a fixed
// pool of workers drains it. Latency is measured from the intended arrival,
// not the actual start, so a system under test that falls behind cannot
// hide its tail (coordinated omission).
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/user/drover/internal/clock"
)

// Driver paces iterations of a Test at a target item rate under a fixed
// concurrency budget and reports latency distributions for the run.
type Driver struct {
	cfg  Config
	test Test

	clk   *clock.Clock
	queue *arrivalQueue
	m     *metrics

	items        int   // items per iteration, from the workload
	start        int64 // run start, clock micros
	end          int64 // scheduling horizon, clock micros
	measureStart int64 // arrivals before this are warmup
	interval     int64 // arrival interval, micros
	timeout      int64 // queue TTL, micros
}

// New validates the configuration and returns a Driver for the workload.
func New(cfg Config, test Test) (*Driver, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if test == nil {
		return nil, fmt.Errorf("test must not be nil")
	}
	return &Driver{cfg: cfg, test: test, m: newMetrics()}, nil
}

// Run executes the workload and returns the report. The report is produced
// whenever setup succeeds, even if every iteration misses or fails; the
// returned error is non-nil only for a setup or teardown failure.
func (d *Driver) Run(ctx context.Context) (*Report, error) {
	if err := d.test.Setup(); err != nil {
		return nil, fmt.Errorf("workload setup: %w", err)
	}

	d.items = d.test.ItemsPerIteration()
	if d.items < 1 {
		d.items = 1
	}

	if d.cfg.TargetRate <= 0 {
		// Nothing to schedule; echo the configuration and stop.
		t := timings{duration: d.cfg.Duration.Microseconds()}
		rep := d.buildReport(t)
		if err := d.test.Teardown(); err != nil {
			return rep, fmt.Errorf("workload teardown: %w", err)
		}
		return rep, nil
	}

	t := d.cfg.derive(d.items)
	d.interval = t.arrivalInterval
	d.timeout = t.timeout
	d.queue = newArrivalQueue(2 * d.cfg.Concurrency)

	d.clk = clock.New()
	d.start = d.clk.NowMicros()
	d.end = d.start + t.duration
	d.measureStart = d.start + t.warmup

	slog.Info("run started",
		"rate", d.cfg.TargetRate,
		"concurrency", d.cfg.Concurrency,
		"duration", d.cfg.Duration,
		"warmup", time.Duration(t.warmup)*time.Microsecond,
		"itemsPerIteration", d.items)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.schedule()
	}()
	for range d.cfg.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.worker(ctx)
		}()
	}
	wg.Wait()
	d.sweepLeftovers()

	rep := d.buildReport(t)
	slog.Info("run finished",
		"completed", rep.CompletedIterations,
		"missed", rep.MissedIterations,
		"errors", rep.ErrorIterations,
		"throughput", rep.ThroughputOverall)

	if err := d.test.Teardown(); err != nil {
		return rep, fmt.Errorf("workload teardown: %w", err)
	}
	return rep, nil
}

// schedule is the single producer. It keeps the queue topped up with
// intended arrival timestamps spaced one interval apart, prunes entries
// whose deadline passed before any worker claimed them, and stops at the
// scheduling horizon.
func (d *Driver) schedule() {
	next := d.start
	halfInterval := time.Duration(d.interval/2) * time.Microsecond
	for d.clk.NowMicros() < d.end {
		d.pruneExpired()
		for d.queue.Len() < 2*d.cfg.Concurrency && next < d.end {
			d.queue.Push(next)
			next += d.interval
		}
		d.clk.Sleep(halfInterval)
	}
}

// pruneExpired drops queue-head arrivals older than the TTL. Each one that
// belongs to the measurement phase counts as a missed iteration with the
// timeout as its recorded latency; warmup arrivals vanish silently.
func (d *Driver) pruneExpired() {
	now := d.clk.NowMicros()
	for _, a := range d.queue.PruneBefore(now - d.timeout) {
		if a >= d.measureStart {
			d.m.dequeued.Add(1)
			d.m.missed.Add(1)
			d.m.recordRequestLatency(d.timeout)
		}
	}
}

func (d *Driver) worker(ctx context.Context) {
	for {
		now := d.clk.NowMicros()
		if now > d.end {
			return
		}
		d.pruneExpired()

		a, ok := d.queue.Pop()
		if !ok {
			d.clk.Yield()
			continue
		}

		// Pace to the intended arrival: sleep the whole milliseconds, then
		// yield-spin across the remainder. Early wait is backoff; a late
		// claim adds to the schedule debt.
		popTime := d.clk.NowMicros()
		if backoff := a - popTime; backoff > 0 {
			if ms := backoff / 1000; ms > 0 {
				d.clk.Sleep(time.Duration(ms) * time.Millisecond)
			}
			for d.clk.NowMicros() < a {
				d.clk.Yield()
			}
			d.m.backoffMicros.Add(d.clk.NowMicros() - popTime)
		} else if backoff < 0 {
			d.m.behindMicros.Add(-backoff)
		}

		requestStart := d.clk.NowMicros()
		err := d.performIteration(ctx)
		completion := d.clk.NowMicros()

		if a < d.measureStart {
			continue // warmup: no counters, failures swallowed
		}
		d.m.dequeued.Add(1)
		d.m.recordRequestLatency(completion - a)
		d.m.recordServiceTime(completion - requestStart)
		if err != nil {
			d.m.errored.Add(1)
			continue
		}
		d.m.completed.Add(1)
		d.m.items.Add(int64(d.items))
		d.m.runMicros.Add(completion - requestStart)
	}
}

// performIteration shields the worker loop from the workload: an iteration
// can fail or panic, never kill the run.
func (d *Driver) performIteration(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("iteration panic: %v", r)
		}
	}()
	return d.test.PerformIteration(ctx)
}

// sweepLeftovers accounts for arrivals still queued after every worker has
// observed the end of the run. Entries whose deadline passed inside the run
// window are missed; the rest were never due and are discarded.
func (d *Driver) sweepLeftovers() {
	for _, a := range d.queue.Drain() {
		if a >= d.measureStart && a+d.timeout < d.end {
			d.m.dequeued.Add(1)
			d.m.missed.Add(1)
			d.m.recordRequestLatency(d.timeout)
		}
	}
}
