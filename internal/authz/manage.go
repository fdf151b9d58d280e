// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

package authz

// Management authority is derived entirely from hierarchy position, never
// from per-principal overrides. This keeps user management independent of
// the more flexible override mechanism.

// CanManageUser reports whether a principal with managerRole may administer
// a principal with targetRole. Only a SUPER_ADMIN may manage another
// SUPER_ADMIN; otherwise the manager must strictly outrank the target.
func CanManageUser(managerRole, targetRole Role) bool {
	if managerRole == RoleSuperAdmin {
		return true
	}
	if targetRole == RoleSuperAdmin {
		return false
	}
	return managerRole.Above(targetRole)
}

// CanAssignRole reports whether a principal with assignerRole may grant
// roleToAssign. A principal may only grant roles strictly below their own
// level, which prevents self-escalation and peer-escalation. SUPER_ADMIN
// may assign any role.
func CanAssignRole(assignerRole, roleToAssign Role) bool {
	if assignerRole == RoleSuperAdmin {
		return true
	}
	return assignerRole.Above(roleToAssign)
}

// AssignableRoles returns the roles assignerRole may grant, in ascending
// privilege order.
func AssignableRoles(assignerRole Role) []Role {
	roles := make([]Role, 0, len(roleStrings))
	for _, r := range Roles() {
		if CanAssignRole(assignerRole, r) {
			roles = append(roles, r)
		}
	}
	return roles
}
