// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

package authz

import (
	"sort"
	"strings"

	"github.com/samber/oops"
)

// Resource identifies a protected resource class.
type Resource string

// The closed set of resources the engine knows about. Adding one is a
// compile-time change; nothing validates against an external source.
const (
	ResourceUsers       Resource = "users"
	ResourceVehicles    Resource = "vehicles"
	ResourceBookings    Resource = "bookings"
	ResourceReviews     Resource = "reviews"
	ResourcePayments    Resource = "payments"
	ResourcePermissions Resource = "permissions"
	ResourceAuditLogs   Resource = "audit_logs"
)

// Action identifies what is being done to a resource.
type Action string

// Action constants. ActionManage is the per-resource wildcard: holding
// "R:manage" is equivalent to holding every other action on R.
const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
)

// Permission is an immutable "resource:action" capability identifier.
type Permission string

// Perm builds the Permission for a resource/action pair.
func Perm(r Resource, a Action) Permission {
	return Permission(string(r) + ":" + string(a))
}

// Resource returns the resource part of p, or "" if p is malformed.
func (p Permission) Resource() Resource {
	name, _, ok := strings.Cut(string(p), ":")
	if !ok {
		return ""
	}
	return Resource(name)
}

// Action returns the action part of p, or "" if p is malformed.
func (p Permission) Action() Action {
	_, action, ok := strings.Cut(string(p), ":")
	if !ok {
		return ""
	}
	return Action(action)
}

func (p Permission) String() string {
	return string(p)
}

var allResources = []Resource{
	ResourceUsers,
	ResourceVehicles,
	ResourceBookings,
	ResourceReviews,
	ResourcePayments,
	ResourcePermissions,
	ResourceAuditLogs,
}

var allActions = []Action{
	ActionCreate,
	ActionRead,
	ActionUpdate,
	ActionDelete,
	ActionManage,
}

// catalog is the closed set of valid permissions, built once at process
// start and never mutated.
var catalog = buildCatalog()

func buildCatalog() map[Permission]struct{} {
	c := make(map[Permission]struct{}, len(allResources)*len(allActions))
	for _, r := range allResources {
		for _, a := range allActions {
			c[Perm(r, a)] = struct{}{}
		}
	}
	return c
}

// Permissions returns every permission in the catalog, sorted.
func Permissions() []Permission {
	perms := make([]Permission, 0, len(catalog))
	for p := range catalog {
		perms = append(perms, p)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}

// ValidPermission reports whether p is in the catalog.
func ValidPermission(p Permission) bool {
	_, ok := catalog[p]
	return ok
}

// ParsePermission validates a raw permission string against the catalog.
// Unknown permissions are rejected with INVALID_PERMISSION before any store
// access, never silently treated as a denial.
func ParsePermission(s string) (Permission, error) {
	p := Permission(s)
	if !ValidPermission(p) {
		return "", oops.In("authz").Code("INVALID_PERMISSION").With("permission", s).Errorf("permission not in catalog")
	}
	return p, nil
}

// rolePermissions maps each role to its static permission set. SUPER_ADMIN
// is intentionally absent: it holds every permission in the catalog by
// invariant, not by map entry.
var rolePermissions = map[Role][]Permission{
	RoleUser: {
		Perm(ResourceVehicles, ActionRead),
		Perm(ResourceBookings, ActionCreate),
		Perm(ResourceReviews, ActionCreate),
		Perm(ResourceReviews, ActionRead),
	},
	RoleManager: {
		Perm(ResourceUsers, ActionRead),
		Perm(ResourceVehicles, ActionManage),
		Perm(ResourceBookings, ActionManage),
		Perm(ResourceReviews, ActionManage),
		Perm(ResourcePayments, ActionRead),
	},
	RoleAdmin: {
		Perm(ResourceUsers, ActionManage),
		Perm(ResourceVehicles, ActionManage),
		Perm(ResourceBookings, ActionManage),
		Perm(ResourceReviews, ActionManage),
		Perm(ResourcePayments, ActionManage),
		Perm(ResourcePermissions, ActionRead),
		Perm(ResourceAuditLogs, ActionRead),
	},
}

// ownResourceGrants lists the resource:action pairs a principal may always
// perform on a record they own, independent of role. Policy data kept next
// to the catalog; behavior is the enumerated set, nothing derived.
var ownResourceGrants = map[Permission]struct{}{
	Perm(ResourceUsers, ActionRead):     {},
	Perm(ResourceUsers, ActionUpdate):   {},
	Perm(ResourceBookings, ActionRead):  {},
	Perm(ResourceReviews, ActionRead):   {},
	Perm(ResourceReviews, ActionUpdate): {},
	Perm(ResourceReviews, ActionDelete): {},
}
