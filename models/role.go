package models

import "strings"

// Role gates which collections and views a signed-in user can reach.
type Role string

const (
	RoleClient     Role = "client"
	RoleEmployee   Role = "employee"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// ParseRole normalizes a stored role string. Unknown values resolve to client.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleClient, RoleEmployee, RoleAdmin, RoleSuperAdmin:
		return r, true
	default:
		return RoleClient, false
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleEmployee, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

func (r Role) IsStaff() bool {
	return r == RoleEmployee || r.IsAdmin()
}

// AssignableRoles lists the roles an administrator may grant through the API.
var AssignableRoles = []Role{RoleClient, RoleEmployee, RoleAdmin}
