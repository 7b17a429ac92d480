package model

import "strings"

// Role is the closed set of principals that can hold a session.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleFaculty Role = "FACULTY"
	RoleStudent Role = "STUDENT"
)

// ParseRole accepts any casing of a known role.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleFaculty, RoleStudent:
		return r, true
	}
	return "", false
}

// IsStaff reports whether the role logs in with username and password.
func (r Role) IsStaff() bool { return r == RoleAdmin || r == RoleFaculty }

func (r Role) String() string { return string(r) }
