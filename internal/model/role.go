package model

import (
	"fmt"
	"strings"
)

// Role is the access level of a user
type Role string

const (
	RoleSuperuser Role = "superuser"
	RoleAdmin     Role = "admin"
	RoleEmployee  Role = "employee"
	RoleClient    Role = "client"
)

// legacy spellings written by earlier versions of the shop
var roleAliases = map[string]Role{
	"superuser":     RoleSuperuser,
	"super_user":    RoleSuperuser,
	"admin":         RoleAdmin,
	"administrador": RoleAdmin,
	"administador":  RoleAdmin,
	"administrator": RoleAdmin,
	"employee":      RoleEmployee,
	"empleado":      RoleEmployee,
	"client":        RoleClient,
	"cliente":       RoleClient,
	"customer":      RoleClient,
}

// ParseRole normalizes a role name, accepting legacy spellings case-insensitively
func ParseRole(s string) (Role, error) {
	if r, ok := roleAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// IsStaff reports whether the role works for the restaurant
func (r Role) IsStaff() bool {
	return r == RoleSuperuser || r == RoleAdmin || r == RoleEmployee
}

func (r Role) String() string { return string(r) }
