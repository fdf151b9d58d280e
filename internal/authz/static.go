// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

package authz

import (
	"github.com/gobwas/glob"
)

// compiledGrant holds a role permission and its compiled matcher. For a
// plain permission the matcher is an exact pattern; for "R:manage" it is
// the "R:*" wildcard so the super-action covers every action on R.
type compiledGrant struct {
	perm    Permission
	matcher glob.Glob
}

// roleGrants is compiled once at process start from rolePermissions and is
// immutable afterwards, so concurrent reads need no synchronization.
//
// Panics if a pattern fails to compile: the permission sets are hardcoded,
// so a failure is a code bug that should fail fast.
var roleGrants = compileRoleGrants()

func compileRoleGrants() map[Role][]compiledGrant {
	compiled := make(map[Role][]compiledGrant, len(rolePermissions))
	for role, perms := range rolePermissions {
		grants := make([]compiledGrant, 0, len(perms))
		for _, p := range perms {
			pattern := string(p)
			if p.Action() == ActionManage {
				pattern = string(p.Resource()) + ":*"
			}
			g, err := glob.Compile(pattern, ':')
			if err != nil {
				panic("authz: invalid permission pattern " + pattern + ": " + err.Error())
			}
			grants = append(grants, compiledGrant{perm: p, matcher: g})
		}
		compiled[role] = grants
	}
	return compiled
}

// RoleHasPermission reports whether a role's static permission set covers
// perm. SUPER_ADMIN holds every permission unconditionally. The check never
// touches persistent storage and is safe to run on every request.
func RoleHasPermission(role Role, perm Permission) bool {
	if role == RoleSuperAdmin {
		return true
	}
	for _, grant := range roleGrants[role] {
		if grant.perm == perm || grant.matcher.Match(string(perm)) {
			return true
		}
	}
	return false
}

// CheckOptions adjusts a permission check.
type CheckOptions struct {
	// OwnResource marks the target as a record the principal owns,
	// enabling the enumerated self-access relaxations (own user record,
	// own bookings, own reviews).
	OwnResource bool
}

// CheckStatic resolves a permission check from role defaults alone, with no
// I/O. Unknown permissions are denied with ReasonUnknownPermission; callers
// holding raw strings should validate through ParsePermission first.
func CheckStatic(role Role, perm Permission, opts CheckOptions) Decision {
	if !ValidPermission(perm) {
		return Deny(ReasonUnknownPermission)
	}
	if role == RoleSuperAdmin {
		return Allow()
	}
	if opts.OwnResource {
		if _, ok := ownResourceGrants[perm]; ok {
			return Allow()
		}
	}
	if RoleHasPermission(role, perm) {
		return Allow()
	}
	return Deny(ReasonRoleLacksPermission)
}
