package api

import "sync"

// CredentialGuard holds the process-wide bearer token.
//
// The session manager is the only writer. Every outgoing request reads the
// token through the guard at call time, never from a cached copy, so a
// mid-session invalidation takes effect on the next request.
type CredentialGuard struct {
	mu    sync.RWMutex
	token string
}

// Token returns the current bearer token, or "" when anonymous.
func (g *CredentialGuard) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token
}

// Set replaces the bearer token.
func (g *CredentialGuard) Set(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token = token
}

// Clear removes the bearer token.
func (g *CredentialGuard) Clear() {
	g.Set("")
}
