package domain

type Role string

const (
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
	RoleSuper  Role = "super"
	RoleGuest  Role = "guest"
)

// Caller is the verified identity attached to a request by the auth
// collaborator. The engine authorizes against it but never re-verifies it.
type Caller struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the caller holds an administrative role.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin || c.Role == RoleSuper
}
