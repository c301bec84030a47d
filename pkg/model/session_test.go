package model

import "testing"

func TestSession_States(t *testing.T) {
	user := &User{ID: 1, Email: "user@example.com", Role: RoleUser}
	admin := &User{ID: 2, Email: "admin@example.com", Role: RoleAdmin}

	tests := []struct {
		name          string
		sess          Session
		anonymous     bool
		authenticated bool
		pending       bool
		isAdmin       bool
	}{
		{"anonymous", Session{}, true, false, false, false},
		{"pending", Session{Token: "tok"}, false, true, true, false},
		{"resolved user", Session{Token: "tok", User: user}, false, true, false, false},
		{"resolved admin", Session{Token: "tok", User: admin}, false, true, false, true},
	}
	for _, tt := range tests {
		if got := tt.sess.IsAnonymous(); got != tt.anonymous {
			t.Errorf("%s: IsAnonymous() = %v, want %v", tt.name, got, tt.anonymous)
		}
		if got := tt.sess.IsAuthenticated(); got != tt.authenticated {
			t.Errorf("%s: IsAuthenticated() = %v, want %v", tt.name, got, tt.authenticated)
		}
		if got := tt.sess.IsPending(); got != tt.pending {
			t.Errorf("%s: IsPending() = %v, want %v", tt.name, got, tt.pending)
		}
		if got := tt.sess.IsAdmin(); got != tt.isAdmin {
			t.Errorf("%s: IsAdmin() = %v, want %v", tt.name, got, tt.isAdmin)
		}
	}
}

func TestUser_IsAdmin(t *testing.T) {
	tests := []struct {
		role  Role
		admin bool
	}{
		{RoleUser, false},
		{RoleAdmin, true},
		{Role("moderator"), false},
	}
	for _, tt := range tests {
		u := &User{Role: tt.role}
		if got := u.IsAdmin(); got != tt.admin {
			t.Errorf("User(role=%q).IsAdmin() = %v, want %v", tt.role, got, tt.admin)
		}
	}
}
