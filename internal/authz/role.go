// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

package authz

import (
	"fmt"

	"github.com/samber/oops"
)

// Role is a coarse privilege tier. The declaration order is the hierarchy:
// a larger value outranks a smaller one, and the order never changes at
// runtime.
type Role int

// Role constants, lowest to highest privilege.
const (
	RoleUser Role = iota
	RoleManager
	RoleAdmin
	RoleSuperAdmin
)

var roleStrings = [...]string{
	"USER",
	"MANAGER",
	"ADMIN",
	"SUPER_ADMIN",
}

func (r Role) String() string {
	if r.Valid() {
		return roleStrings[r]
	}
	return fmt.Sprintf("unknown(%d)", int(r))
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	return r >= RoleUser && int(r) < len(roleStrings)
}

// Level returns the hierarchy position of r. Positions are injective and
// total: every role has exactly one.
func (r Role) Level() int {
	return int(r)
}

// AtLeast reports whether r is at the same level as other or above it.
func (r Role) AtLeast(other Role) bool {
	return r >= other
}

// Above reports whether r strictly outranks other.
func (r Role) Above(other Role) bool {
	return r > other
}

// Roles returns all roles in ascending privilege order.
func Roles() []Role {
	return []Role{RoleUser, RoleManager, RoleAdmin, RoleSuperAdmin}
}

// ParseRole converts a role name ("USER", "MANAGER", ...) to its Role value.
// Returns an INVALID_ROLE error for unknown names.
func ParseRole(s string) (Role, error) {
	for i, name := range roleStrings {
		if name == s {
			return Role(i), nil
		}
	}
	return 0, oops.In("authz").Code("INVALID_ROLE").With("role", s).Errorf("unknown role")
}
