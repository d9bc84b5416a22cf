package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HealthCheck probes a carrier tracking page. Any response below 500 counts as
// reachable: carrier sites answer bots with 403 while still being up.
func HealthCheck(ctx context.Context, client *http.Client, pageURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return fmt.Errorf("health check request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health check %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("health check %s: status %d", pageURL, resp.StatusCode)
	}
	return nil
}
