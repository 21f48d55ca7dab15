package driver

import (
	"sync"
	"sync/atomic"

	"github.com/user/drover/internal/hist"
)

// metrics collects per-run counters and the two latency histograms.
// Counters are atomics because workers update them in parallel; the
// histograms share one mutex since the recorder library is not
// concurrency-safe.
type metrics struct {
	completed atomic.Int64
	missed    atomic.Int64
	errored   atomic.Int64
	items     atomic.Int64
	dequeued  atomic.Int64 // measurement-phase arrivals taken off the queue

	runMicros     atomic.Int64 // time spent inside successful iterations
	backoffMicros atomic.Int64 // time spent waiting for an intended arrival
	behindMicros  atomic.Int64 // accumulated schedule debt

	mu             sync.Mutex
	requestLatency *hist.Hist // intended arrival -> completion
	serviceTime    *hist.Hist // actual start -> completion
}

func newMetrics() *metrics {
	return &metrics{
		requestLatency: hist.New(),
		serviceTime:    hist.New(),
	}
}

func (m *metrics) recordRequestLatency(us int64) {
	m.mu.Lock()
	m.requestLatency.Record(us)
	m.mu.Unlock()
}

func (m *metrics) recordServiceTime(us int64) {
	m.mu.Lock()
	m.serviceTime.Record(us)
	m.mu.Unlock()
}

func (m *metrics) latencyStats() (request, service hist.StatsMillis) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestLatency.StatsMillis(), m.serviceTime.StatsMillis()
}
