package store

import "context"

// Store defines the durable client-side state slot.
//
// The client persists exactly one field across restarts: the credential
// token. Everything else (profile, route, telemetry) is session-lifetime
// state and is rebuilt on start.
type Store interface {
	// Credential returns the stored token, or "" if none is stored.
	Credential(ctx context.Context) (string, error)
	// SetCredential stores the token, replacing any previous one.
	SetCredential(ctx context.Context, token string) error
	// ClearCredential removes the stored token. Clearing an empty slot is
	// not an error.
	ClearCredential(ctx context.Context) error

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
