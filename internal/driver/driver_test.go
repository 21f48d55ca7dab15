package driver

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// sleepTest simulates a system under test with a fixed service time.
type sleepTest struct {
	BaseTest
	delay time.Duration
	calls atomic.Int64
}

func (s *sleepTest) PerformIteration(context.Context) error {
	s.calls.Add(1)
	time.Sleep(s.delay)
	return nil
}

// failTest always errors.
type failTest struct {
	BaseTest
}

func (failTest) PerformIteration(context.Context) error {
	return errors.New("boom")
}

// panicTest always panics.
type panicTest struct {
	BaseTest
}

func (panicTest) PerformIteration(context.Context) error {
	panic("worker should survive this")
}

// hookTest wires setup/teardown outcomes.
type hookTest struct {
	sleepTest
	setupErr    error
	teardownErr error
	setups      int
	teardowns   int
}

func (h *hookTest) Setup() error {
	h.setups++
	return h.setupErr
}

func (h *hookTest) Teardown() error {
	h.teardowns++
	return h.teardownErr
}

func TestZeroRateShortCircuits(t *testing.T) {
	test := &hookTest{}
	d, err := New(Config{Concurrency: 4, TargetRate: 0, Duration: 5 * time.Second}, test)
	if err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	rep, err := d.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(start) > time.Second {
		t.Error("zero-rate run should return immediately, not wait out the duration")
	}
	if test.setups != 1 || test.teardowns != 1 {
		t.Errorf("setup/teardown = %d/%d, want 1/1", test.setups, test.teardowns)
	}
	if rep.CompletedIterations != 0 || rep.MissedIterations != 0 || rep.ErrorIterations != 0 {
		t.Errorf("expected no iterations, got %d/%d/%d",
			rep.CompletedIterations, rep.MissedIterations, rep.ErrorIterations)
	}
	if rep.TargetArrivalRateRatio != 0 {
		t.Errorf("TargetArrivalRateRatio = %f, want 0", rep.TargetArrivalRateRatio)
	}
	if test.sleepTest.calls.Load() != 0 {
		t.Error("workload must not be called at zero rate")
	}
}

func TestSteadyStateRun(t *testing.T) {
	if testing.Short() {
		t.Skip("timed run")
	}
	test := &sleepTest{delay: 10 * time.Millisecond}
	cfg := Config{Concurrency: 10, TargetRate: 100, Duration: 2 * time.Second}
	d, err := New(cfg, test)
	if err != nil {
		t.Fatal(err)
	}
	rep, err := d.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// 2s at 100/s with a 200ms warmup: ~180 measured iterations.
	if rep.CompletedIterations < 150 || rep.CompletedIterations > 195 {
		t.Errorf("CompletedIterations = %d, want ~180", rep.CompletedIterations)
	}
	if rep.FailedIterationsRatio > 0.05 {
		t.Errorf("FailedIterationsRatio = %f, want ~0", rep.FailedIterationsRatio)
	}
	if p50 := rep.RequestLatencyStatsMillis.P50; p50 < 9 || p50 > 15 {
		t.Errorf("request latency p50 = %.2fms, want within [9,15]", p50)
	}
	if u := rep.WorkerUtilization.Utilization; u >= 0.15 {
		t.Errorf("utilization = %.3f, want < 0.15 with 10 mostly idle workers", u)
	}
	if rep.TargetArrivalRateRatio < 0.8 || rep.TargetArrivalRateRatio > 1.1 {
		t.Errorf("TargetArrivalRateRatio = %f, want ~1", rep.TargetArrivalRateRatio)
	}

	// The user-facing figure can never undercut the server-side one.
	if rep.RequestLatencyStatsMillis.P50+0.01 < rep.ServiceTimeStatsMillis.P50 {
		t.Errorf("request p50 %.2f < service p50 %.2f",
			rep.RequestLatencyStatsMillis.P50, rep.ServiceTimeStatsMillis.P50)
	}

	// Everything dequeued in the measurement phase is accounted for.
	total := rep.CompletedIterations + rep.MissedIterations + rep.ErrorIterations
	if got := d.m.dequeued.Load(); got != total {
		t.Errorf("dequeued = %d, counted = %d", got, total)
	}
}

func TestAllErroringWorkloadStillReports(t *testing.T) {
	if testing.Short() {
		t.Skip("timed run")
	}
	d, err := New(Config{Concurrency: 2, TargetRate: 200, Duration: 1 * time.Second, Timeout: 500 * time.Millisecond}, failTest{})
	if err != nil {
		t.Fatal(err)
	}
	rep, err := d.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.CompletedIterations != 0 {
		t.Errorf("CompletedIterations = %d, want 0", rep.CompletedIterations)
	}
	if rep.ErrorIterations == 0 {
		t.Error("ErrorIterations = 0, want > 0")
	}
	if rep.FailedIterationsRatio != 1.0 {
		t.Errorf("FailedIterationsRatio = %f, want 1.0", rep.FailedIterationsRatio)
	}
	// Failed iterations still contribute latency samples.
	if rep.RequestLatencyStatsMillis.P50 <= 0 {
		t.Error("request latency should be recorded for failed iterations")
	}
}

func TestPanickingWorkloadCountsAsError(t *testing.T) {
	if testing.Short() {
		t.Skip("timed run")
	}
	d, err := New(Config{Concurrency: 2, TargetRate: 100, Duration: 1 * time.Second, SkipWarmup: true}, panicTest{})
	if err != nil {
		t.Fatal(err)
	}
	rep, err := d.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.ErrorIterations == 0 {
		t.Error("panics should surface as error iterations")
	}
}

func TestOverloadPinsLatencyAtTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("timed run")
	}
	// Service time 100ms against a 100/s target with 2 workers: capacity is
	// 20/s, so most arrivals expire in queue at the 50ms TTL.
	test := &sleepTest{delay: 100 * time.Millisecond}
	cfg := Config{
		Concurrency: 2,
		TargetRate:  100,
		Duration:    2 * time.Second,
		Timeout:     50 * time.Millisecond,
		SkipWarmup:  true,
	}
	d, err := New(cfg, test)
	if err != nil {
		t.Fatal(err)
	}
	rep, err := d.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.MissedIterations <= rep.CompletedIterations {
		t.Errorf("missed = %d, completed = %d; overload should be dominated by misses",
			rep.MissedIterations, rep.CompletedIterations)
	}
	// Missed arrivals are credited the timeout, so the tail sits at or
	// above it instead of being silently omitted.
	if p99 := rep.RequestLatencyStatsMillis.P99; p99 < 45 {
		t.Errorf("request latency p99 = %.2fms, want >= ~50ms", p99)
	}
	if rep.WorkerUtilization.BehindScheduleTimeMillis < 0 {
		t.Error("behind-schedule time must be non-negative")
	}
}

func TestSetupFailureAbortsRun(t *testing.T) {
	test := &hookTest{setupErr: errors.New("no database")}
	d, err := New(Config{Concurrency: 1, TargetRate: 10, Duration: time.Second}, test)
	if err != nil {
		t.Fatal(err)
	}
	rep, err := d.Run(context.Background())
	if err == nil {
		t.Fatal("setup failure must surface from Run")
	}
	if rep != nil {
		t.Error("no report on setup failure")
	}
	if test.sleepTest.calls.Load() != 0 {
		t.Error("workload must not run after failed setup")
	}
}

func TestTeardownFailureSurfacesWithReport(t *testing.T) {
	test := &hookTest{teardownErr: errors.New("flush failed")}
	d, err := New(Config{Concurrency: 1, TargetRate: 0, Duration: time.Second}, test)
	if err != nil {
		t.Fatal(err)
	}
	rep, err := d.Run(context.Background())
	if err == nil {
		t.Fatal("teardown failure must surface from Run")
	}
	if rep == nil {
		t.Error("report should still be produced when only teardown fails")
	}
}

func TestRunReportEchoesConfiguration(t *testing.T) {
	if testing.Short() {
		t.Skip("timed run")
	}
	cfg := Config{Concurrency: 3, TargetRate: 50, Duration: 1 * time.Second, Timeout: 80 * time.Millisecond}
	d, err := New(cfg, &sleepTest{delay: time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	rep, err := d.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	echo := rep.Configuration
	if echo.TargetArrivalRate != 50 || echo.Concurrency != 3 {
		t.Errorf("config echo = %+v", echo)
	}
	if echo.OverallDurationMillis != 1000 {
		t.Errorf("OverallDurationMillis = %d, want 1000", echo.OverallDurationMillis)
	}
	if echo.WarmupMillis != 100 {
		t.Errorf("WarmupMillis = %d, want 100", echo.WarmupMillis)
	}
	if echo.RequestTimeoutMillis != 80 {
		t.Errorf("RequestTimeoutMillis = %d, want 80", echo.RequestTimeoutMillis)
	}
	if rep.WorkerCycleTimeMillis != 60 {
		t.Errorf("WorkerCycleTimeMillis = %.1f, want 60", rep.WorkerCycleTimeMillis)
	}
}
