// Package scenario loads and validates run scenario files: which workload
// to drive, the driver parameters, and the workload's own knobs.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/user/drover/internal/driver"
)

const schema = `{
	"type": "object",
	"required": ["name", "workload", "ratePerSecond", "concurrency", "durationSeconds"],
	"properties": {
		"name":            {"type": "string", "minLength": 1},
		"workload":        {"type": "string", "enum": ["ledger", "http"]},
		"ratePerSecond":   {"type": "number", "minimum": 0},
		"concurrency":     {"type": "integer", "minimum": 1},
		"durationSeconds": {"type": "number", "minimum": 0.001},
		"timeoutMillis":   {"type": "integer", "minimum": 0},
		"skipWarmup":      {"type": "boolean"},
		"ledger": {
			"type": "object",
			"properties": {
				"backend":   {"type": "string", "enum": ["memory", "pebble", "badger"]},
				"dataDir":   {"type": "string"},
				"accounts":  {"type": "integer", "minimum": 2},
				"batchSize": {"type": "integer", "minimum": 1, "maximum": 33},
				"maxAmount": {"type": "integer", "minimum": 1},
				"seed":      {"type": "integer"}
			},
			"additionalProperties": false
		},
		"http": {
			"type": "object",
			"required": ["baseURL"],
			"properties": {
				"baseURL": {"type": "string", "minLength": 1},
				"path":    {"type": "string"}
			},
			"additionalProperties": false
		}
	},
	"additionalProperties": false
}`

// Ledger configures the ledger workload.
type Ledger struct {
	Backend   string `json:"backend"`
	DataDir   string `json:"dataDir"`
	Accounts  int    `json:"accounts"`
	BatchSize int    `json:"batchSize"`
	MaxAmount uint64 `json:"maxAmount"`
	Seed      int64  `json:"seed"`
}

// HTTP configures the http workload.
type HTTP struct {
	BaseURL string `json:"baseURL"`
	Path    string `json:"path"`
}

// Scenario is one validated run description.
type Scenario struct {
	Name            string  `json:"name"`
	Workload        string  `json:"workload"`
	RatePerSecond   float64 `json:"ratePerSecond"`
	Concurrency     int     `json:"concurrency"`
	DurationSeconds float64 `json:"durationSeconds"`
	TimeoutMillis   int64   `json:"timeoutMillis"`
	SkipWarmup      bool    `json:"skipWarmup"`
	Ledger          Ledger  `json:"ledger"`
	HTTP            HTTP    `json:"http"`
}

// DriverConfig maps the scenario onto the driver's typed configuration.
func (s *Scenario) DriverConfig() driver.Config {
	return driver.Config{
		Concurrency: s.Concurrency,
		TargetRate:  s.RatePerSecond,
		Duration:    time.Duration(s.DurationSeconds * float64(time.Second)),
		Timeout:     time.Duration(s.TimeoutMillis) * time.Millisecond,
		SkipWarmup:  s.SkipWarmup,
	}
}

// Parse validates raw against the scenario schema and decodes it.
func Parse(raw []byte) (*Scenario, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("validate scenario: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, fmt.Errorf("invalid scenario: %s", strings.Join(msgs, "; "))
	}

	var s Scenario
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if s.Workload == "http" && s.HTTP.BaseURL == "" {
		return nil, fmt.Errorf("http workload requires http.baseURL")
	}
	return &s, nil
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(raw)
}
