package domain

import "strings"

// Role partitions portal content. Every bundle belongs to exactly one role.
type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
	RoleStaff   Role = "staff"
)

// Roles lists every supported role in bootstrap order.
var Roles = []Role{RoleStudent, RoleTutor, RoleStaff}

// ParseRole accepts a role name in any letter case.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleStudent, RoleTutor, RoleStaff:
		return r, nil
	}
	return "", ErrUnknownRole
}

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTutor, RoleStaff:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
