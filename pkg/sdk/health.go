package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// HealthReport is the service health outcome. A degraded service still
// returns a report; Healthy is false when any check fails.
type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Healthy reports whether every check passed.
func (r HealthReport) Healthy() bool { return r.Status == "ok" }

// Health fetches the service health. Unlike other calls, a 503 response
// still yields the decoded report rather than an error.
func (c *Client) Health(ctx context.Context) (HealthReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return HealthReport{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return HealthReport{}, fmt.Errorf("GET /health: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return HealthReport{}, parseAPIError(resp)
	}

	var report HealthReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return HealthReport{}, fmt.Errorf("decode response: %w", err)
	}
	return report, nil
}
