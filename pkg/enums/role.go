package enums

import (
	"fmt"
	"strings"
)

// Role is the dashboard permission level carried by an identity and its session.
type Role string

const (
	// RoleNone marks an unauthenticated caller. It is never persisted.
	RoleNone       Role = ""
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superAdmin"
)

var validRoles = []Role{
	RoleAdmin,
	RoleSuperAdmin,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is an assignable Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role. Matching ignores case so that
// "superadmin" and "SuperAdmin" written by older seed scripts still resolve.
func ParseRole(value string) (Role, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validRoles {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return RoleNone, fmt.Errorf("invalid role %q", value)
}
