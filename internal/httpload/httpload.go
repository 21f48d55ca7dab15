// Package httpload is a workload that issues one GET per iteration against
// a remote HTTP service.
package httpload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/user/drover/internal/driver"
)

// Workload drives an HTTP target. The client carries its own request
// timeout; the driver never cancels a running iteration.
type Workload struct {
	driver.BaseTest

	baseURL string
	path    string
	client  *http.Client
}

// New returns a Workload for baseURL. An empty path defaults to /work.
func New(baseURL, path string, timeout time.Duration) *Workload {
	if path == "" {
		path = "/work"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Workload{
		baseURL: baseURL,
		path:    path,
		client:  &http.Client{Timeout: timeout},
	}
}

// Setup verifies the target is reachable before any worker starts.
func (w *Workload) Setup() error {
	resp, err := w.client.Get(w.baseURL + "/healthz")
	if err != nil {
		return fmt.Errorf("cannot reach target: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("target unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// PerformIteration issues one request and drains the response.
func (w *Workload) PerformIteration(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+w.path, nil)
	if err != nil {
		return err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

// TestRunData reports the target configuration.
func (w *Workload) TestRunData() map[string]any {
	return map[string]any{
		"workload": "http",
		"baseURL":  w.baseURL,
		"path":     w.path,
	}
}
