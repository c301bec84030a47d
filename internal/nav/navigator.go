package nav

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/me/romecli/pkg/model"
)

// Observer is notified after each route transition. pageID is 0 when the
// destination is untracked; the observer still closes any prior interval.
type Observer interface {
	RouteChanged(pageID int)
}

// SessionSource provides the current session snapshot at decision time.
type SessionSource interface {
	Current() model.Session
}

// Navigator owns the current route and applies the gate on every
// navigation. Re-entering the current route is a no-op: no transition, no
// observer notification.
type Navigator struct {
	sessions SessionSource
	observer Observer
	logger   *slog.Logger

	mu      sync.Mutex
	current Route
	origin  string // requested route preserved across a login redirect
	pending string // route awaiting profile resolution
}

// Outcome describes where a navigation landed.
type Outcome struct {
	Route    Route // the route now current (the requested one when pending)
	Decision Decision
}

// New creates a navigator. observer may be nil.
func New(sessions SessionSource, observer Observer, logger *slog.Logger) *Navigator {
	return &Navigator{
		sessions: sessions,
		observer: observer,
		logger:   logger.With("component", "nav"),
	}
}

// Current returns the route currently rendered.
func (n *Navigator) Current() Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// NavigateTo gates and applies a navigation to the named route.
func (n *Navigator) NavigateTo(name string) (Outcome, error) {
	route, ok := Lookup(name)
	if !ok {
		return Outcome{}, fmt.Errorf("unknown route %q", name)
	}
	return n.apply(route), nil
}

// Reevaluate re-runs the gate for a navigation that was left pending, or for
// the current route after a session change (e.g. mid-session invalidation).
func (n *Navigator) Reevaluate() Outcome {
	n.mu.Lock()
	target := n.pending
	if target == "" {
		target = n.current.Name
	}
	n.mu.Unlock()

	if target == "" {
		return Outcome{Decision: Decision{Kind: Render}}
	}
	route, _ := Lookup(target)
	return n.apply(route)
}

// ResumeAfterLogin navigates to the route that originally triggered the
// login redirect, or the default landing route if there is none. A role
// check failing on the origin still lands on the default route.
func (n *Navigator) ResumeAfterLogin() Outcome {
	n.mu.Lock()
	target := n.origin
	n.origin = ""
	n.mu.Unlock()

	if target == "" {
		target = DefaultRoute
	}
	out, err := n.NavigateTo(target)
	if err != nil {
		out, _ = n.NavigateTo(DefaultRoute)
	}
	return out
}

// apply runs the gate and performs the resulting transition.
func (n *Navigator) apply(route Route) Outcome {
	sess := n.sessions.Current()
	d := Decide(route, sess)

	switch d.Kind {
	case Render:
		n.render(route)
		return Outcome{Route: route, Decision: d}

	case RedirectToLogin:
		n.mu.Lock()
		n.origin = d.Origin
		n.pending = ""
		n.mu.Unlock()
		n.logger.Debug("redirecting to login", "origin", d.Origin)
		login, _ := Lookup(LoginRoute)
		n.render(login)
		return Outcome{Route: login, Decision: d}

	case RedirectToDefault:
		n.logger.Debug("role check failed, redirecting to default", "route", route.Name)
		def, _ := Lookup(DefaultRoute)
		n.render(def)
		return Outcome{Route: def, Decision: d}

	case Pending:
		// Guarded content stays unrendered until the profile resolves;
		// remember the target so Reevaluate can finish the navigation.
		n.mu.Lock()
		n.pending = route.Name
		n.mu.Unlock()
		n.logger.Debug("navigation pending profile resolution", "route", route.Name)
		return Outcome{Route: route, Decision: d}
	}

	return Outcome{Route: route, Decision: d}
}

// render makes route current and notifies the observer. A re-render of the
// current route does not notify: only an actual route change opens a new
// measurement interval.
func (n *Navigator) render(route Route) {
	n.mu.Lock()
	same := n.current.Name == route.Name
	n.current = route
	n.pending = ""
	n.mu.Unlock()

	if same {
		return
	}
	n.logger.Debug("route changed", "route", route.Name, "page_id", route.PageID)
	if n.observer != nil {
		n.observer.RouteChanged(route.PageID)
	}
}
