// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

// Package authz decides whether a principal may perform an action on a
// resource.
//
// Permissions use the "resource:action" string format:
//   - resource: "users", "vehicles", "bookings", "reviews", "payments",
//     "permissions", "audit_logs"
//   - action: "create", "read", "update", "delete", "manage"
//
// "manage" is a super-action: a role or override holding "vehicles:manage"
// implicitly holds every other vehicles action.
//
// Role defaults are resolved statically with no I/O; per-principal overrides
// are resolved through the overrides store. Every check fails closed: a store
// failure is a denial, never a silent allow.
package authz
