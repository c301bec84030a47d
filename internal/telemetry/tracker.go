// Package telemetry measures dwell time on tracked pages and reports visit
// and duration events to the backend.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Reporter is the subset of the API client the tracker sends through.
type Reporter interface {
	// ReportVisit and ReportTime are the normal delivery path.
	ReportVisit(ctx context.Context, pageID int) error
	ReportTime(ctx context.Context, pageID, seconds int) error
	// SendBeacon is the teardown-safe path: it must survive the
	// application context being cancelled underneath it.
	SendBeacon(pageID, seconds int) error
}

// visit is one open measurement interval. At most one exists.
type visit struct {
	pageID    int
	startedAt time.Time
}

// Tracker is the dwell-time state machine: idle, or measuring exactly one
// page. Route transitions close the open interval, emit its duration (zero
// durations suppressed), and open the next one. Delivery failures are
// logged, never retried, and never block navigation.
type Tracker struct {
	reporter Reporter
	logger   *slog.Logger
	clock    func() time.Time

	mu     sync.Mutex
	active *visit

	sends sync.WaitGroup // in-flight fire-and-forget sends
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces the time source (used in tests).
func WithClock(clock func() time.Time) Option {
	return func(t *Tracker) {
		t.clock = clock
	}
}

// New creates a tracker in the idle state.
func New(reporter Reporter, logger *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		reporter: reporter,
		logger:   logger.With("component", "telemetry"),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RouteChanged records a route transition. pageID 0 means the destination is
// untracked: the prior interval still closes, but no new one opens.
//
// Re-entering the page already being measured is a no-op: the interval keeps
// its start time and no duplicate visit event is emitted.
func (t *Tracker) RouteChanged(pageID int) {
	t.mu.Lock()
	if t.active != nil && t.active.pageID == pageID {
		t.mu.Unlock()
		return
	}

	prevID, prevSeconds := t.closeIntervalLocked("navigation")

	if pageID != 0 {
		t.active = &visit{pageID: pageID, startedAt: t.clock()}
	}
	t.mu.Unlock()

	// The duration for the previous page is dispatched before the visit for
	// the new one; neither send waits for the other's completion, and a new
	// navigation cancels neither.
	if prevSeconds > 0 {
		t.dispatchDuration(prevID, prevSeconds)
	}
	if pageID != 0 {
		t.dispatchVisit(pageID)
	}
}

// Close ends any open interval, delivering the final duration through the
// teardown-safe channel. Both the navigation handler (indirectly, via
// RouteChanged) and teardown paths funnel into the same interval-closing
// logic, so the two can never diverge.
func (t *Tracker) Close(reason string) {
	t.mu.Lock()
	pageID, seconds := t.closeIntervalLocked(reason)
	t.mu.Unlock()

	if seconds <= 0 {
		return
	}
	// A plain request dispatched here could be cancelled along with the
	// dying application context; the beacon path cannot.
	if err := t.reporter.SendBeacon(pageID, seconds); err != nil {
		t.logger.Warn("final duration event failed", "page_id", pageID, "seconds", seconds, "error", err)
	}
}

// Wait blocks until all in-flight fire-and-forget sends have settled.
func (t *Tracker) Wait() {
	t.sends.Wait()
}

// closeIntervalLocked ends the open interval and returns its page and whole
// seconds elapsed. Returns zeros when idle. Callers hold t.mu.
func (t *Tracker) closeIntervalLocked(reason string) (pageID, seconds int) {
	if t.active == nil {
		return 0, 0
	}
	pageID = t.active.pageID
	seconds = int(t.clock().Sub(t.active.startedAt) / time.Second)
	t.active = nil
	t.logger.Debug("interval closed", "page_id", pageID, "seconds", seconds, "reason", reason)
	return pageID, seconds
}

// dispatchVisit fires a visit event without blocking the caller.
func (t *Tracker) dispatchVisit(pageID int) {
	t.sends.Add(1)
	go func() {
		defer t.sends.Done()
		if err := t.reporter.ReportVisit(context.Background(), pageID); err != nil {
			t.logger.Warn("visit event failed", "page_id", pageID, "error", err)
		}
	}()
}

// dispatchDuration fires a duration event without blocking the caller.
func (t *Tracker) dispatchDuration(pageID, seconds int) {
	t.sends.Add(1)
	go func() {
		defer t.sends.Done()
		if err := t.reporter.ReportTime(context.Background(), pageID, seconds); err != nil {
			t.logger.Warn("duration event failed", "page_id", pageID, "seconds", seconds, "error", err)
		}
	}()
}
