package model

// Session is the process-lifetime authentication state of the client.
//
// An empty Token means anonymous. A non-empty Token with a nil User means the
// profile fetch is still resolving ("pending"). User is never non-nil while
// Token is empty; the session manager clears both in one update.
type Session struct {
	Token string
	User  *User
}

// IsAnonymous reports whether no credential is held.
func (s Session) IsAnonymous() bool {
	return s.Token == ""
}

// IsAuthenticated reports whether a credential is held (profile may still
// be resolving).
func (s Session) IsAuthenticated() bool {
	return s.Token != ""
}

// IsPending reports whether the profile fetch for the held credential has
// not resolved yet.
func (s Session) IsPending() bool {
	return s.Token != "" && s.User == nil
}

// IsAdmin reports whether the resolved profile has admin role.
func (s Session) IsAdmin() bool {
	return s.User != nil && s.User.IsAdmin()
}
