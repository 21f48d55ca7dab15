package driver

import "context"

// Test is the capability set a workload exposes to the driver. Setup runs
// once before any worker starts; a setup failure aborts the run without
// calling Teardown. Otherwise Teardown runs once after every worker has
// finished. PerformIteration executes one
// unit of work and must be safe to call from multiple workers at once.
type Test interface {
	// Setup prepares the workload. Called exactly once, before any worker.
	Setup() error

	// Teardown finalizes the workload. Called exactly once, after all workers,
	// when Setup succeeded; not called when Setup fails.
	Teardown() error

	// PerformIteration performs one unit of work against the system under
	// test. Failures are counted, never propagated.
	PerformIteration(ctx context.Context) error

	// ItemsPerIteration reports how many work items one iteration represents.
	// The configured target rate is in items, not iterations.
	ItemsPerIteration() int

	// TestRunData returns workload configuration to embed in the report.
	TestRunData() map[string]any
}

// BaseTest provides the common defaults: one item per iteration and no
// run data. Embed it and override what the workload needs.
type BaseTest struct{}

func (BaseTest) Setup() error    { return nil }
func (BaseTest) Teardown() error { return nil }

func (BaseTest) ItemsPerIteration() int { return 1 }

func (BaseTest) TestRunData() map[string]any { return map[string]any{} }
