package nav

import "github.com/me/romecli/pkg/model"

// DecisionKind is the outcome of gating a route against the session.
type DecisionKind int

const (
	// Render allows the route to render.
	Render DecisionKind = iota
	// RedirectToLogin sends an anonymous user to the login route, carrying
	// the originally requested route for post-login resume.
	RedirectToLogin
	// RedirectToDefault sends an authenticated user without the required
	// role to the default landing route.
	RedirectToDefault
	// Pending blocks rendering of guarded content while the profile fetch
	// for a held token is still resolving. Never a redirect: redirecting
	// here would flash the login screen during hydration.
	Pending
)

func (k DecisionKind) String() string {
	switch k {
	case Render:
		return "render"
	case RedirectToLogin:
		return "redirect-to-login"
	case RedirectToDefault:
		return "redirect-to-default"
	case Pending:
		return "pending"
	default:
		return "unknown"
	}
}

// Decision is the gate's verdict for one navigation.
type Decision struct {
	Kind   DecisionKind
	Origin string // requested route, set on RedirectToLogin
}

// Decide evaluates the capability predicates for a route against a session
// snapshot. It is a pure function: no state, no side effects.
func Decide(route Route, sess model.Session) Decision {
	if route.Access == Public {
		return Decision{Kind: Render}
	}
	if sess.IsAnonymous() {
		return Decision{Kind: RedirectToLogin, Origin: route.Name}
	}
	if sess.IsPending() {
		return Decision{Kind: Pending}
	}
	if role := route.Access.role; role != "" && sess.User.Role != role {
		return Decision{Kind: RedirectToDefault}
	}
	return Decision{Kind: Render}
}
