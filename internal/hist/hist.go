// Package hist records integer microsecond durations and answers the fixed
// percentile set the driver reports.
package hist

import (
	"github.com/codahale/hdrhistogram"
)

const (
	// Largest recordable duration: one hour in microseconds. Values above
	// this are clamped rather than dropped.
	maxMicros = int64(3_600_000_000)
	sigFigs   = 3
)

// Hist is a high-dynamic-range recorder of positive microsecond values.
// It is not safe for concurrent use; each histogram has a single owner.
type Hist struct {
	h *hdrhistogram.Histogram
}

// New returns an empty histogram covering [1us, 1h].
func New() *Hist {
	return &Hist{h: hdrhistogram.New(1, maxMicros, sigFigs)}
}

// Record adds one microsecond value. Zero and negative values are recorded
// as 1us; values beyond the recordable range are clamped to it.
func (h *Hist) Record(us int64) {
	if us < 1 {
		us = 1
	}
	if us > maxMicros {
		us = maxMicros
	}
	// Error only fires for out-of-range values, which are clamped above.
	_ = h.h.RecordValue(us)
}

// Count returns the number of recorded values.
func (h *Hist) Count() int64 {
	return h.h.TotalCount()
}

// Min returns the lowest recorded value in microseconds, 0 if empty.
func (h *Hist) Min() int64 {
	if h.h.TotalCount() == 0 {
		return 0
	}
	return h.h.Min()
}

// Max returns the highest recorded value in microseconds, 0 if empty.
func (h *Hist) Max() int64 {
	if h.h.TotalCount() == 0 {
		return 0
	}
	return h.h.Max()
}

// Mean returns the mean recorded value in microseconds.
func (h *Hist) Mean() float64 {
	return h.h.Mean()
}

// Percentile returns the value at quantile q (0-100) in microseconds.
func (h *Hist) Percentile(q float64) int64 {
	if h.h.TotalCount() == 0 {
		return 0
	}
	return h.h.ValueAtQuantile(q)
}

// StatsMillis is a percentile snapshot in milliseconds. The JSON field names
// are part of the report contract.
type StatsMillis struct {
	Avg  float64 `json:"avg"`
	P0   float64 `json:"p0"`
	P25  float64 `json:"p25"`
	P50  float64 `json:"p50"`
	P75  float64 `json:"p75"`
	P90  float64 `json:"p90"`
	P95  float64 `json:"p95"`
	P99  float64 `json:"p99"`
	P999 float64 `json:"p99_9"`
	P100 float64 `json:"p100"`
}

// StatsMillis converts the current state into a millisecond snapshot.
func (h *Hist) StatsMillis() StatsMillis {
	ms := func(us int64) float64 { return float64(us) / 1000.0 }
	return StatsMillis{
		Avg:  h.Mean() / 1000.0,
		P0:   ms(h.Percentile(0)),
		P25:  ms(h.Percentile(25)),
		P50:  ms(h.Percentile(50)),
		P75:  ms(h.Percentile(75)),
		P90:  ms(h.Percentile(90)),
		P95:  ms(h.Percentile(95)),
		P99:  ms(h.Percentile(99)),
		P999: ms(h.Percentile(99.9)),
		P100: ms(h.Percentile(100)),
	}
}
