package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/drover/internal/sut"
)

var (
	sutBind     string
	sutLatency  time.Duration
	sutFailRate float64
)

var sutCmd = &cobra.Command{
	Use:   "sut",
	Short: "Start a practice target server",
	Long:  "Serves /healthz and /work with configurable latency and failure rate, for local driver runs.",
	RunE:  runSUT,
}

func init() {
	sutCmd.Flags().StringVar(&sutBind, "bind", ":8081", "listen address")
	sutCmd.Flags().DurationVar(&sutLatency, "latency", 10*time.Millisecond, "simulated service time per request")
	sutCmd.Flags().Float64Var(&sutFailRate, "fail-rate", 0, "fraction of requests answered with 500")
}

func runSUT(cmd *cobra.Command, args []string) error {
	srv := &http.Server{
		Addr:    sutBind,
		Handler: sut.Handler(sut.Config{Latency: sutLatency, FailRate: sutFailRate}),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("practice target listening", "addr", sutBind, "latency", sutLatency, "failRate", sutFailRate)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
