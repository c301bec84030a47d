// Package session owns the client's authentication state: one Session value,
// mutated only here, with the token/user pairing kept consistent across
// login, logout, and hydration.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/me/romecli/internal/api"
	"github.com/me/romecli/internal/store"
	"github.com/me/romecli/pkg/model"
)

// Gateway is the subset of the backend client the manager needs.
type Gateway interface {
	IssueToken(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, email, password string) error
	Whoami(ctx context.Context) (*model.User, error)
}

// Manager owns the Session. All mutation goes through it; consumers read
// snapshots via Current or subscribe to changes.
type Manager struct {
	gateway Gateway
	store   store.Store
	creds   *api.CredentialGuard
	logger  *slog.Logger

	mu       sync.Mutex
	sess     model.Session
	onChange []func(model.Session)

	profile sync.WaitGroup // outstanding async profile fetch
}

// NewManager creates a session manager. creds is the guard shared with the
// API client; the manager is its only writer.
func NewManager(gw Gateway, st store.Store, creds *api.CredentialGuard, logger *slog.Logger) *Manager {
	return &Manager{
		gateway: gw,
		store:   st,
		creds:   creds,
		logger:  logger.With("component", "session"),
	}
}

// Current returns a snapshot of the session.
func (m *Manager) Current() model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess
}

// Subscribe registers a callback invoked with a session snapshot after every
// change. Callbacks run outside the manager's lock, in mutation order.
func (m *Manager) Subscribe(fn func(model.Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}

// set replaces the session in one update and returns the callbacks to run.
// Token and user always change together here, so no caller ever observes a
// user without a token.
func (m *Manager) set(sess model.Session) {
	m.mu.Lock()
	m.sess = sess
	callbacks := make([]func(model.Session), len(m.onChange))
	copy(callbacks, m.onChange)
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn(sess)
	}
}

// Hydrate restores the session from the persisted credential at startup.
// A stored token enters the pending state and resolves asynchronously; an
// invalid one silently demotes back to anonymous.
func (m *Manager) Hydrate(ctx context.Context) error {
	token, err := m.store.Credential(ctx)
	if err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}
	if token == "" {
		m.logger.Debug("hydrate: no stored credential")
		return nil
	}

	m.creds.Set(token)
	m.set(model.Session{Token: token})
	m.logger.Debug("hydrate: credential restored, resolving profile")

	m.fetchProfile(ctx, token)
	return nil
}

// Login exchanges credentials for a token, persists it, and starts the
// profile fetch. On rejection the session is not touched and
// api.ErrInvalidCredentials is returned for the caller to display.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	token, err := m.gateway.IssueToken(ctx, email, password)
	if err != nil {
		return err
	}

	if err := m.store.SetCredential(ctx, token); err != nil {
		// The session still works for this run; only persistence failed.
		m.logger.Warn("persist credential failed", "error", err)
	}

	m.creds.Set(token)
	m.set(model.Session{Token: token})
	m.logger.Info("logged in", "email", email)

	m.fetchProfile(ctx, token)
	return nil
}

// Register creates an account. It never mutates the session; callers log in
// separately afterwards.
func (m *Manager) Register(ctx context.Context, email, password string) error {
	return m.gateway.Register(ctx, email, password)
}

// Logout clears the persisted credential and the session. Token and user are
// dropped in a single update with no observable intermediate state.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.store.ClearCredential(ctx); err != nil {
		m.logger.Warn("clear credential failed", "error", err)
	}
	m.creds.Clear()
	m.set(model.Session{})
	m.logger.Info("logged out")
}

// fetchProfile resolves the user profile for token in the background.
// A result arriving after the token changed (logout, new login) is discarded
// so a stale profile can never resurrect a closed session.
func (m *Manager) fetchProfile(ctx context.Context, token string) {
	m.profile.Add(1)
	go func() {
		defer m.profile.Done()

		user, err := m.gateway.Whoami(ctx)

		next := model.Session{Token: token, User: user}
		if err != nil {
			next = model.Session{}
		}

		// Token identity check and update share one critical section, so a
		// logout racing the fetch can never be overwritten by a stale result.
		if !m.setIfToken(token, next) {
			m.logger.Debug("profile fetch resolved for a superseded token, discarding")
			return
		}

		if err != nil {
			// Silent recovery: the user just sees the login screen.
			m.logger.Info("profile fetch failed, demoting to anonymous", "error", err)
			m.creds.Clear()
			if clearErr := m.store.ClearCredential(context.WithoutCancel(ctx)); clearErr != nil {
				m.logger.Warn("clear credential failed", "error", clearErr)
			}
			return
		}

		m.logger.Debug("profile resolved", "email", user.Email, "role", user.Role)
	}()
}

// setIfToken replaces the session only if the current token still matches.
// Returns false when the result is stale.
func (m *Manager) setIfToken(token string, sess model.Session) bool {
	m.mu.Lock()
	if m.sess.Token != token {
		m.mu.Unlock()
		return false
	}
	m.sess = sess
	callbacks := make([]func(model.Session), len(m.onChange))
	copy(callbacks, m.onChange)
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn(sess)
	}
	return true
}

// WaitProfile blocks until any outstanding profile fetch has settled.
func (m *Manager) WaitProfile() {
	m.profile.Wait()
}
