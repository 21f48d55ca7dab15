package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/drover/internal/driver"
	"github.com/user/drover/internal/httpload"
	"github.com/user/drover/internal/ledger"
	"github.com/user/drover/internal/observability"
	"github.com/user/drover/internal/results"
	"github.com/user/drover/internal/scenario"
)

var (
	scenarioPath string
	outPath      string
	archiveDir   string
	otelEnabled  bool
	otelEndpoint string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a load-test scenario",
	RunE:  runScenario,
}

func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "scenario file (required)")
	runCmd.Flags().StringVar(&outPath, "out", "", "write the report to this file instead of stdout")
	runCmd.Flags().StringVar(&archiveDir, "archive-dir", "", "also archive the report in a SQLite database under this directory")
	runCmd.Flags().BoolVar(&otelEnabled, "otel", false, "enable trace export")
	runCmd.Flags().StringVar(&otelEndpoint, "otel-endpoint", "", "OTLP/HTTP endpoint (stdout export when empty)")
	runCmd.MarkFlagRequired("scenario")
}

func runScenario(cmd *cobra.Command, args []string) error {
	s, err := scenario.Load(scenarioPath)
	if err != nil {
		return err
	}

	shutdownTracer, err := observability.InitTracer(otelEnabled, "drover", otelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			slog.Error("tracer shutdown", "error", err)
		}
	}()

	test, cleanup, err := buildWorkload(s)
	if err != nil {
		return err
	}
	defer cleanup()

	d, err := driver.New(s.DriverConfig(), test)
	if err != nil {
		return err
	}
	rep, err := d.Run(cmd.Context())
	if rep == nil && err != nil {
		return err
	}
	if err != nil {
		slog.Error("run finished with error", "error", err)
	}

	if archiveDir != "" {
		db, aerr := results.Open(archiveDir)
		if aerr != nil {
			return aerr
		}
		defer db.Close()
		id, aerr := db.Save(s.Name, rep)
		if aerr != nil {
			return aerr
		}
		slog.Info("report archived", "id", id, "dir", archiveDir)
	}

	enc, merr := json.MarshalIndent(rep, "", "  ")
	if merr != nil {
		return merr
	}
	if outPath != "" {
		if werr := os.WriteFile(outPath, append(enc, '\n'), 0o644); werr != nil {
			return werr
		}
	} else {
		fmt.Println(string(enc))
	}
	return err
}

// buildWorkload assembles the scenario's workload and the cleanup for any
// resources behind it.
func buildWorkload(s *scenario.Scenario) (driver.Test, func(), error) {
	switch s.Workload {
	case "http":
		timeout := time.Duration(s.TimeoutMillis) * time.Millisecond
		return httpload.New(s.HTTP.BaseURL, s.HTTP.Path, timeout), func() {}, nil

	case "ledger":
		sink, err := openSink(s.Ledger)
		if err != nil {
			return nil, nil, err
		}
		w, err := ledger.NewWorkload(sink, ledger.WorkloadConfig{
			Ledger:    700,
			Accounts:  s.Ledger.Accounts,
			BatchSize: s.Ledger.BatchSize,
			MaxAmount: s.Ledger.MaxAmount,
			Seed:      s.Ledger.Seed,
		})
		if err != nil {
			sink.Close()
			return nil, nil, err
		}
		return w, func() {
			if cerr := sink.Close(); cerr != nil {
				slog.Error("close sink", "error", cerr)
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown workload %q", s.Workload)
	}
}

func openSink(cfg scenario.Ledger) (ledger.Sink, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	switch cfg.Backend {
	case "", "memory":
		return ledger.NewMemSink(), nil
	case "pebble":
		return ledger.OpenPebbleSink(dataDir)
	case "badger":
		return ledger.OpenBadgerSink(dataDir)
	default:
		return nil, fmt.Errorf("unknown sink backend %q", cfg.Backend)
	}
}
