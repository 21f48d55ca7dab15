// Package sut is a practice target for the driver: an HTTP server whose
// latency and failure rate are dialed in from the command line, so a full
// open-loop run can be exercised without a real system under test.
package sut

import (
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// Config shapes the simulated service.
type Config struct {
	Latency  time.Duration // sleep before answering /work
	FailRate float64       // fraction of /work requests answered with 500
	Seed     int64         // 0 picks a time-based seed
}

// Handler returns the practice target's router.
func Handler(cfg Config) http.Handler {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(seed))

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/work", func(w http.ResponseWriter, _ *http.Request) {
		if cfg.Latency > 0 {
			time.Sleep(cfg.Latency)
		}
		if cfg.FailRate > 0 {
			mu.Lock()
			failed := rng.Float64() < cfg.FailRate
			mu.Unlock()
			if failed {
				http.Error(w, "induced failure", http.StatusInternalServerError)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("done"))
	})
	return r
}
