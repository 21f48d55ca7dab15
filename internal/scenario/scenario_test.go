package scenario

import (
	"strings"
	"testing"
	"time"
)

const validLedger = `{
	"name": "ledger-smoke",
	"workload": "ledger",
	"ratePerSecond": 100,
	"concurrency": 4,
	"durationSeconds": 10,
	"timeoutMillis": 250,
	"ledger": {"backend": "memory", "accounts": 16, "batchSize": 8}
}`

func TestParseValidScenario(t *testing.T) {
	s, err := Parse([]byte(validLedger))
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "ledger-smoke" || s.Workload != "ledger" {
		t.Errorf("parsed = %+v", s)
	}
	if s.Ledger.Backend != "memory" || s.Ledger.BatchSize != 8 {
		t.Errorf("ledger section = %+v", s.Ledger)
	}

	cfg := s.DriverConfig()
	if cfg.Concurrency != 4 || cfg.TargetRate != 100 {
		t.Errorf("driver config = %+v", cfg)
	}
	if cfg.Duration != 10*time.Second || cfg.Timeout != 250*time.Millisecond {
		t.Errorf("driver durations = %s/%s", cfg.Duration, cfg.Timeout)
	}
}

func TestParseRejectsUnknownWorkload(t *testing.T) {
	doc := strings.Replace(validLedger, `"ledger"`, `"carrier-pigeon"`, 1)
	if _, err := Parse([]byte(doc)); err == nil {
		t.Error("unknown workload should be rejected")
	}
}

func TestParseRejectsMissingFields(t *testing.T) {
	if _, err := Parse([]byte(`{"name": "x", "workload": "ledger"}`)); err == nil {
		t.Error("scenario without rate/concurrency/duration should be rejected")
	}
}

func TestParseRejectsOversizedBatch(t *testing.T) {
	doc := strings.Replace(validLedger, `"batchSize": 8`, `"batchSize": 64`, 1)
	if _, err := Parse([]byte(doc)); err == nil {
		t.Error("batch size above the transactional limit should be rejected")
	}
}

func TestParseRejectsHTTPWithoutBaseURL(t *testing.T) {
	doc := `{
		"name": "http-smoke",
		"workload": "http",
		"ratePerSecond": 10,
		"concurrency": 1,
		"durationSeconds": 1,
		"http": {"path": "/work"}
	}`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Error("http workload without baseURL should be rejected")
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	doc := strings.Replace(validLedger, `"timeoutMillis": 250,`, `"timeoutMillis": 250, "typoKey": 1,`, 1)
	if _, err := Parse([]byte(doc)); err == nil {
		t.Error("unknown top-level keys should be rejected")
	}
}
