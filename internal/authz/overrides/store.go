// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

// Package overrides persists per-principal permission exceptions.
//
// An override is keyed uniquely by (principal, permission): granted=true
// adds the permission to the principal's effective set even if their role
// lacks it, granted=false removes it even if their role grants it. Absence
// means "defer to role". Writes are atomic upserts backed by the table's
// unique key, so a race between two concurrent grants converges to one row.
package overrides

import (
	"context"
	"time"

	"github.com/samber/oops"
)

// Override is a persisted per-principal permission exception.
type Override struct {
	ID          string
	PrincipalID string
	Permission  string
	Granted     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store handles override persistence. At most one override exists per
// (principal, permission) pair.
type Store interface {
	// Find returns the override for the pair, or an OVERRIDE_NOT_FOUND
	// error when none exists.
	Find(ctx context.Context, principalID, permission string) (*Override, error)

	// Upsert creates or replaces the override for the pair.
	Upsert(ctx context.Context, principalID, permission string, granted bool) error

	// Delete removes any override for the pair, reverting the principal
	// to pure role-derived behavior. Deleting a missing pair is not an
	// error.
	Delete(ctx context.Context, principalID, permission string) error

	// List returns all overrides for a principal, ordered by permission.
	List(ctx context.Context, principalID string) ([]Override, error)
}

// IsNotFound returns true if the error is an OVERRIDE_NOT_FOUND error from
// the store.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	return oopsErr.Code() == "OVERRIDE_NOT_FOUND"
}
