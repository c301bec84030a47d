// Package nav holds the client-side route table, the capability gate
// evaluated before rendering a route, and the navigator driving transitions.
package nav

import "github.com/me/romecli/pkg/model"

// Access describes who may render a route.
type Access struct {
	requireAuth bool
	role        model.Role
}

// Public routes bypass the gate entirely.
var Public = Access{}

// Authenticated routes require any logged-in user.
var Authenticated = Access{requireAuth: true}

// RequireRole restricts a route to a specific role.
func RequireRole(role model.Role) Access {
	return Access{requireAuth: true, role: role}
}

// Route is a navigation target. PageID is the backend's identifier for
// tracked pages; 0 means the route is not measured.
type Route struct {
	Name   string
	PageID int
	Access Access
}

// Tracked reports whether the route participates in visit/dwell telemetry.
func (r Route) Tracked() bool {
	return r.PageID != 0
}

// Well-known route names.
const (
	DefaultRoute = "intro"
	LoginRoute   = "login"
)

// routes is the fixed table shared with the backend: page IDs are agreed
// identifiers, not discovered at runtime. Routes without a PageID are never
// measured.
var routes = []Route{
	{Name: "intro", PageID: 1, Access: Authenticated},
	{Name: "description", PageID: 2, Access: Authenticated},
	{Name: "conclusion", PageID: 3, Access: Authenticated},
	{Name: "posts", PageID: 4, Access: Authenticated},
	{Name: "api", PageID: 5, Access: Authenticated},
	{Name: "stats", Access: RequireRole(model.RoleAdmin)},
	{Name: "login", Access: Public},
	{Name: "register", Access: Public},
}

// Lookup returns the route with the given name.
func Lookup(name string) (Route, bool) {
	for _, r := range routes {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

// Routes returns the full route table in declaration order.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}
