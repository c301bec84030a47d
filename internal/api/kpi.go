package api

import (
	"context"
	"fmt"
	"io"

	"github.com/me/romecli/pkg/model"
)

// ReportVisit reports an arrival on a tracked page via POST /kpi/visit.
// Callers treat this as fire-and-forget: failures are logged, not retried.
func (c *Client) ReportVisit(ctx context.Context, pageID int) error {
	resp, err := c.postJSON(ctx, "/kpi/visit", map[string]int{"page_id": pageID})
	if err != nil {
		return fmt.Errorf("report visit: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("report visit: %w", statusError(resp))
	}
	return nil
}

// ReportTime reports seconds spent on a tracked page via POST /kpi/time.
// Same fire-and-forget semantics as ReportVisit.
func (c *Client) ReportTime(ctx context.Context, pageID, seconds int) error {
	resp, err := c.postJSON(ctx, "/kpi/time", map[string]int{
		"page_id": pageID,
		"seconds": seconds,
	})
	if err != nil {
		return fmt.Errorf("report time: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("report time: %w", statusError(resp))
	}
	return nil
}

// SendBeacon delivers a final duration event during teardown. It runs on a
// fresh background context with its own short timeout, so it is never
// cancelled along with the application context that is being torn down.
func (c *Client) SendBeacon(pageID, seconds int) error {
	ctx, cancel := context.WithTimeout(context.Background(), BeaconTimeout)
	defer cancel()
	return c.ReportTime(ctx, pageID, seconds)
}

// KPI fetches the per-page visit statistics via GET /kpi (admin only
// server-side; 403 maps to ErrForbidden).
func (c *Client) KPI(ctx context.Context) ([]model.KPIEntry, error) {
	var entries []model.KPIEntry
	if err := c.getJSON(ctx, "/kpi", &entries); err != nil {
		return nil, fmt.Errorf("kpi: %w", err)
	}
	return entries, nil
}
