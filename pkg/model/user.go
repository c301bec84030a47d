package model

// Role represents the role of a user account.
type Role string

const (
	// RoleUser is a standard authenticated user.
	RoleUser Role = "user"
	// RoleAdmin has access to site statistics and page management.
	RoleAdmin Role = "admin"
)

// User is the profile returned by the whoami endpoint.
type User struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
