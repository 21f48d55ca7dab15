package driver

import "github.com/user/drover/internal/hist"

// Report is the result of a run. Field names are part of the contract.
type Report struct {
	Configuration ConfigEcho     `json:"configuration"`
	TestRunData   map[string]any `json:"testRunData"`

	CompletedIterations int64 `json:"completedIterations"`
	MissedIterations    int64 `json:"missedIterations"`
	ErrorIterations     int64 `json:"errorIterations"`

	FailedIterationsRatio        float64 `json:"failedIterationsRatio"`
	WorkerCycleTimeMillis        float64 `json:"workerCycleTimeMillis"`
	TotalRequestsCompleted       int64   `json:"totalRequestsCompleted"`
	ThroughputOverall            float64 `json:"throughputOverall"`
	IterationsPerSecondPerWorker float64 `json:"iterationsPerSecondPerWorker"`
	TargetArrivalRateRatio       float64 `json:"targetArrivalRateRatio"`

	RequestLatencyStatsMillis hist.StatsMillis `json:"requestLatencyStatsMillis"`
	ServiceTimeStatsMillis    hist.StatsMillis `json:"serviceTimeStatsMillis"`

	WorkerUtilization Utilization `json:"workerUtilization"`
}

// ConfigEcho repeats the effective configuration in the report.
type ConfigEcho struct {
	TargetArrivalRate    float64 `json:"targetArrivalRate"`
	Concurrency          int     `json:"concurrency"`
	OverallDurationMillis int64  `json:"overallDurationMillis"`
	WarmupMillis         int64   `json:"warmupMillis"`
	RequestTimeoutMillis int64   `json:"requestTimeoutMillis"`
}

// Utilization summarizes how workers spent the run.
type Utilization struct {
	RunTimeMillis            float64 `json:"runTimeMillis"`
	BackoffTimeMillis        float64 `json:"backoffTimeMillis"`
	BehindScheduleTimeMillis float64 `json:"behindScheduleTimeMillis"`
	Utilization              float64 `json:"utilization"`
}

func (d *Driver) buildReport(t timings) *Report {
	completed := d.m.completed.Load()
	missed := d.m.missed.Load()
	errored := d.m.errored.Load()
	items := d.m.items.Load()

	measuredSecs := float64(t.duration-t.warmup) / 1e6

	rep := &Report{
		Configuration: ConfigEcho{
			TargetArrivalRate:    d.cfg.TargetRate,
			Concurrency:          d.cfg.Concurrency,
			OverallDurationMillis: t.duration / 1000,
			WarmupMillis:         t.warmup / 1000,
			RequestTimeoutMillis: t.timeout / 1000,
		},
		TestRunData:            d.test.TestRunData(),
		CompletedIterations:    completed,
		MissedIterations:       missed,
		ErrorIterations:        errored,
		WorkerCycleTimeMillis:  float64(t.workerCycle) / 1000,
		TotalRequestsCompleted: items,
	}

	// (errors + missed) / (completed + missed); an all-errored run has an
	// empty denominator and still counts as fully failed.
	if denom := completed + missed; denom > 0 {
		rep.FailedIterationsRatio = float64(errored+missed) / float64(denom)
	} else if errored > 0 {
		rep.FailedIterationsRatio = 1.0
	}

	if measuredSecs > 0 {
		rep.ThroughputOverall = float64(items) / measuredSecs
		rep.IterationsPerSecondPerWorker = float64(completed) / measuredSecs / float64(d.cfg.Concurrency)
	}
	if d.cfg.TargetRate > 0 {
		rep.TargetArrivalRateRatio = rep.ThroughputOverall / d.cfg.TargetRate
	}

	rep.RequestLatencyStatsMillis, rep.ServiceTimeStatsMillis = d.m.latencyStats()

	run := float64(d.m.runMicros.Load()) / 1000
	backoff := float64(d.m.backoffMicros.Load()) / 1000
	rep.WorkerUtilization = Utilization{
		RunTimeMillis:            run,
		BackoffTimeMillis:        backoff,
		BehindScheduleTimeMillis: float64(d.m.behindMicros.Load()) / 1000,
	}
	if run+backoff > 0 {
		rep.WorkerUtilization.Utilization = run / (run + backoff)
	}
	return rep
}
