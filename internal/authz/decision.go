// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

package authz

// Denial reasons. A reason is always populated on denial for observability,
// never on allow.
const (
	ReasonExplicitlyDenied    = "explicitly denied"
	ReasonRoleLacksPermission = "role lacks permission"
	ReasonUnknownPermission   = "unknown permission"
	ReasonStoreUnavailable    = "override store unavailable"
)

// Decision is the outcome of a permission check. A denial is a normal,
// expected outcome, not an error value. The allowed field is unexported so
// the reason invariant cannot be bypassed.
type Decision struct {
	allowed bool

	// Reason explains a denial; empty when the decision allows.
	Reason string
}

// Allow returns an allowing decision.
func Allow() Decision {
	return Decision{allowed: true}
}

// Deny returns a denying decision carrying the given reason.
func Deny(reason string) Decision {
	return Decision{allowed: false, Reason: reason}
}

// IsAllowed reports whether the decision grants access.
func (d Decision) IsAllowed() bool {
	return d.allowed
}
