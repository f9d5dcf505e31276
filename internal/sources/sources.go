// Package sources holds the typed clients for the external content platforms
// the discovery pipeline mines. Every client is rate limited, counts its own
// external calls for budget reporting, and degrades to an empty result
// instead of failing the run.
package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/oppradar/oppradar/internal/platform/observability"
)

const defaultHTTPTimeout = 15 * time.Second

var (
	// ErrNotConfigured indicates the client has no credentials and cannot fetch.
	ErrNotConfigured = errors.New("source client not configured")

	// ErrUnexpectedStatus indicates a non-2xx response from the provider.
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

// callCounter tracks external calls made by one client.
type callCounter struct {
	calls atomic.Int64
}

func (c *callCounter) inc() {
	c.calls.Add(1)
}

// Count returns the number of external calls made so far.
func (c *callCounter) Count() int {
	return int(c.calls.Load())
}

// getJSON performs one GET against a provider, decodes the JSON body into
// target and records the per-provider metrics.
func getJSON(ctx context.Context, client *http.Client, provider string, url string, headers map[string]string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()

	resp, err := client.Do(req)

	observability.SourceRequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	if err != nil {
		observability.SourceRequests.WithLabelValues(provider, "error").Inc()

		return fmt.Errorf("%s request: %w", provider, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		observability.SourceRequests.WithLabelValues(provider, "error").Inc()
		_, _ = io.Copy(io.Discard, resp.Body)

		return fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, provider, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		observability.SourceRequests.WithLabelValues(provider, "error").Inc()

		return fmt.Errorf("%s decode: %w", provider, err)
	}

	observability.SourceRequests.WithLabelValues(provider, "success").Inc()

	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	return s[:max]
}
