package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// event is a recorded reporter call.
type event struct {
	kind    string // "visit", "time", "beacon"
	pageID  int
	seconds int
}

// recorder is a Reporter that records every call.
type recorder struct {
	mu     sync.Mutex
	events []event
	fail   bool
}

func (r *recorder) record(ev event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if r.fail {
		return errors.New("delivery failed")
	}
	return nil
}

func (r *recorder) ReportVisit(_ context.Context, pageID int) error {
	return r.record(event{kind: "visit", pageID: pageID})
}

func (r *recorder) ReportTime(_ context.Context, pageID, seconds int) error {
	return r.record(event{kind: "time", pageID: pageID, seconds: seconds})
}

func (r *recorder) SendBeacon(pageID, seconds int) error {
	return r.record(event{kind: "beacon", pageID: pageID, seconds: seconds})
}

func (r *recorder) snapshot() []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event, len(r.events))
	copy(out, r.events)
	return out
}

// count returns how many recorded events match kind and pageID.
func (r *recorder) count(kind string, pageID int) int {
	n := 0
	for _, ev := range r.snapshot() {
		if ev.kind == kind && ev.pageID == pageID {
			n++
		}
	}
	return n
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestTracker(t *testing.T) (*Tracker, *recorder, *fakeClock) {
	t.Helper()
	rec := &recorder{}
	clock := newFakeClock()
	return New(rec, testLogger(), WithClock(clock.Now)), rec, clock
}

func TestRouteChange_EmitsDurationThenVisit(t *testing.T) {
	tr, rec, clock := newTestTracker(t)

	tr.RouteChanged(4) // arrive on posts
	clock.Advance(42 * time.Second)
	tr.RouteChanged(5) // navigate to api
	tr.Wait()

	if got := rec.count("visit", 4); got != 1 {
		t.Errorf("visit events for page 4 = %d, want 1", got)
	}
	if got := rec.count("visit", 5); got != 1 {
		t.Errorf("visit events for page 5 = %d, want 1", got)
	}
	var durations []event
	for _, ev := range rec.snapshot() {
		if ev.kind == "time" {
			durations = append(durations, ev)
		}
	}
	if len(durations) != 1 || durations[0].pageID != 4 || durations[0].seconds != 42 {
		t.Errorf("duration events = %+v, want one {page 4, 42s}", durations)
	}
}

func TestRouteChange_ZeroDurationSuppressed(t *testing.T) {
	tr, rec, clock := newTestTracker(t)

	tr.RouteChanged(1)
	clock.Advance(700 * time.Millisecond) // sub-second hop
	tr.RouteChanged(2)
	tr.Wait()

	for _, ev := range rec.snapshot() {
		if ev.kind == "time" || ev.kind == "beacon" {
			t.Errorf("zero-duration interval emitted %+v", ev)
		}
	}
	if got := rec.count("visit", 2); got != 1 {
		t.Errorf("visit events for page 2 = %d, want 1", got)
	}
}

func TestReenterSameRoute_Idempotent(t *testing.T) {
	tr, rec, clock := newTestTracker(t)

	tr.RouteChanged(3)
	clock.Advance(10 * time.Second)
	tr.RouteChanged(3) // re-render without navigation
	clock.Advance(10 * time.Second)
	tr.RouteChanged(1)
	tr.Wait()

	if got := rec.count("visit", 3); got != 1 {
		t.Errorf("visit events for page 3 = %d, want 1 despite re-render", got)
	}
	// The interval was not reset by the re-render: full 20 seconds.
	var durations []event
	for _, ev := range rec.snapshot() {
		if ev.kind == "time" {
			durations = append(durations, ev)
		}
	}
	if len(durations) != 1 || durations[0].pageID != 3 || durations[0].seconds != 20 {
		t.Errorf("duration events = %+v, want one {page 3, 20s}", durations)
	}
}

func TestUntrackedDestination_ClosesWithoutOpening(t *testing.T) {
	tr, rec, clock := newTestTracker(t)

	tr.RouteChanged(2)
	clock.Advance(5 * time.Second)
	tr.RouteChanged(0) // untracked destination
	tr.Wait()

	var durations []event
	for _, ev := range rec.snapshot() {
		if ev.kind == "time" {
			durations = append(durations, ev)
		}
	}
	if len(durations) != 1 || durations[0].pageID != 2 || durations[0].seconds != 5 {
		t.Errorf("duration events = %+v, want one {page 2, 5s}", durations)
	}

	// Idle now: leaving the untracked state emits nothing further.
	clock.Advance(30 * time.Second)
	tr.RouteChanged(1)
	tr.Wait()
	for _, ev := range rec.snapshot() {
		if ev.kind == "time" && ev.pageID != 2 {
			t.Errorf("unexpected duration while idle: %+v", ev)
		}
	}
}

func TestClose_DeliversFinalDurationViaBeacon(t *testing.T) {
	tr, rec, clock := newTestTracker(t)

	tr.RouteChanged(1) // arrive on intro
	clock.Advance(7 * time.Second)
	tr.Close("unload")
	tr.Wait()

	var beacons []event
	for _, ev := range rec.snapshot() {
		if ev.kind == "beacon" {
			beacons = append(beacons, ev)
		}
	}
	if len(beacons) != 1 || beacons[0].pageID != 1 || beacons[0].seconds != 7 {
		t.Errorf("beacon events = %+v, want one {page 1, 7s}", beacons)
	}
}

func TestClose_Idle(t *testing.T) {
	tr, rec, _ := newTestTracker(t)

	tr.Close("unload")
	tr.Wait()

	if events := rec.snapshot(); len(events) != 0 {
		t.Errorf("closing an idle tracker emitted %+v", events)
	}
}

func TestClose_ZeroDurationSuppressed(t *testing.T) {
	tr, rec, _ := newTestTracker(t)

	tr.RouteChanged(1)
	tr.Close("unload") // immediate teardown
	tr.Wait()

	for _, ev := range rec.snapshot() {
		if ev.kind == "beacon" || ev.kind == "time" {
			t.Errorf("zero-duration teardown emitted %+v", ev)
		}
	}
}

func TestDeliveryFailure_DoesNotBlockNextTransition(t *testing.T) {
	rec := &recorder{fail: true}
	clock := newFakeClock()
	tr := New(rec, testLogger(), WithClock(clock.Now))

	tr.RouteChanged(1)
	clock.Advance(3 * time.Second)
	tr.RouteChanged(2)
	clock.Advance(4 * time.Second)
	tr.RouteChanged(3)
	tr.Wait()

	// Failures are logged only; every transition still produced its events.
	if got := rec.count("visit", 3); got != 1 {
		t.Errorf("visit events for page 3 = %d, want 1 despite failures", got)
	}
}

func TestDurationsNeverOverlap(t *testing.T) {
	tr, rec, clock := newTestTracker(t)

	// Wander across tracked pages; total emitted per page must not exceed
	// the wall-clock time spent there.
	spent := map[int]int{}
	path := []struct {
		pageID  int
		seconds int
	}{
		{1, 10}, {2, 0}, {1, 5}, {3, 61}, {1, 2},
	}
	for _, step := range path {
		tr.RouteChanged(step.pageID)
		clock.Advance(time.Duration(step.seconds) * time.Second)
		spent[step.pageID] += step.seconds
	}
	tr.Close("unload")
	tr.Wait()

	emitted := map[int]int{}
	for _, ev := range rec.snapshot() {
		if ev.kind == "time" || ev.kind == "beacon" {
			emitted[ev.pageID] += ev.seconds
			if ev.seconds <= 0 {
				t.Errorf("non-positive duration emitted: %+v", ev)
			}
		}
	}
	for pageID, total := range emitted {
		if total > spent[pageID] {
			t.Errorf("page %d: emitted %ds exceeds wall-clock %ds", pageID, total, spent[pageID])
		}
	}
}
