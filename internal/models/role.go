package models

import (
	"fmt"
	"slices"
)

// Role is a closed set of authorization roles.
type Role string

const (
	RolePlatformAdmin Role = "platform_admin"
	RoleOrgAdmin      Role = "org_admin"
	RoleMember        Role = "member"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RolePlatformAdmin, RoleOrgAdmin, RoleMember:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Roles is the role set of a user. Roles are only ever added.
type Roles []Role

// ParseRoles validates every name, dropping duplicates.
func ParseRoles(names []string) (Roles, error) {
	var roles Roles
	for _, name := range names {
		r, err := ParseRole(name)
		if err != nil {
			return nil, err
		}
		roles = roles.Add(r)
	}
	return roles, nil
}

// Has reports whether r is in the set.
func (rs Roles) Has(r Role) bool {
	return slices.Contains(rs, r)
}

// Add returns the set with r appended unless already present.
func (rs Roles) Add(r Role) Roles {
	if rs.Has(r) {
		return rs
	}
	return append(rs, r)
}

// Strings returns the role names.
func (rs Roles) Strings() []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}
