package ledger

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/avast/retry-go"
)

const (
	retryAttempts   = 4 // first try plus three retries
	retryBaseDelay  = 20 * time.Millisecond
	retryMultiplier = 1.2
	retryMaxDelay   = 60 * time.Millisecond
)

// RetryStats reports how one retried operation went: total attempts made
// and the wall-clock delay actually slept between them.
type RetryStats struct {
	Attempts int
	Delay    time.Duration
}

// WithRetry runs op under the ledger retry policy: bounded exponential
// backoff starting at 20ms with a 1.2x multiplier, each delay stretched by
// a jitter factor in [1,2) and capped at 60ms, four attempts in all. After
// exhausting retries the last failure propagates unchanged.
func WithRetry(ctx context.Context, op func(ctx context.Context) error) (RetryStats, error) {
	var stats RetryStats
	err := retry.Do(
		func() error {
			stats.Attempts++
			return op(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(retryAttempts),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			d := backoffDelay(n)
			stats.Delay += d
			return d
		}),
	)
	return stats, err
}

func backoffDelay(n uint) time.Duration {
	d := float64(retryBaseDelay) * math.Pow(retryMultiplier, float64(n))
	d *= 1 + rand.Float64()
	if d > float64(retryMaxDelay) {
		d = float64(retryMaxDelay)
	}
	return time.Duration(d)
}
