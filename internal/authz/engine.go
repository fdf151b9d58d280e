// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

package authz

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/samber/oops"

	"github.com/fleetrent/fleetrent/internal/authz/overrides"
	"github.com/fleetrent/fleetrent/pkg/errutil"
)

// Engine composes the static resolver with the overrides store to produce
// authorization decisions. It is stateless: all mutable state lives in the
// store, so a single Engine is safe for concurrent use from any number of
// goroutines.
type Engine struct {
	overrides overrides.Store
	logger    *slog.Logger
}

// NewEngine creates an Engine. If logger is nil, slog.Default() is used.
func NewEngine(store overrides.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{overrides: store, logger: logger}
}

// CheckStatic resolves a check from role defaults alone, with no I/O. It is
// the degraded-mode fallback for callers that accept static guarantees only.
func (e *Engine) CheckStatic(role Role, perm Permission, opts CheckOptions) Decision {
	start := time.Now()
	d := CheckStatic(role, perm, opts)
	recordDecision("static", d, time.Since(start))
	return d
}

// CheckDynamic resolves a full check for a principal:
//
//  1. SUPER_ADMIN is allowed without consulting the store.
//  2. A static allow is final.
//  3. An exact override decides the pair: granted allows, denied denies.
//  4. A granted "resource:manage" override allows.
//  5. Otherwise deny with ReasonRoleLacksPermission.
//
// Store failures fail closed: the returned decision denies, and the store
// error is surfaced so callers can distinguish infrastructure trouble from
// a policy denial. Context cancellation propagates the same way.
func (e *Engine) CheckDynamic(ctx context.Context, principalID string, role Role, perm Permission, opts CheckOptions) (Decision, error) {
	start := time.Now()
	d, err := e.checkDynamic(ctx, principalID, role, perm, opts)
	recordDecision("dynamic", d, time.Since(start))
	return d, err
}

func (e *Engine) checkDynamic(ctx context.Context, principalID string, role Role, perm Permission, opts CheckOptions) (Decision, error) {
	if !ValidPermission(perm) {
		return Deny(ReasonUnknownPermission),
			oops.In("authz").Code("INVALID_PERMISSION").With("permission", string(perm)).Errorf("permission not in catalog")
	}

	if role == RoleSuperAdmin {
		return Allow(), nil
	}

	if d := CheckStatic(role, perm, opts); d.IsAllowed() {
		return d, nil
	}

	o, err := e.overrides.Find(ctx, principalID, string(perm))
	switch {
	case err == nil:
		if o.Granted {
			return Allow(), nil
		}
		return Deny(ReasonExplicitlyDenied), nil
	case !overrides.IsNotFound(err):
		return e.failClosed(principalID, perm, err)
	}

	// The exact lookup above already covered the manage pair when perm is
	// itself a manage permission.
	if perm.Action() != ActionManage {
		manage := Perm(perm.Resource(), ActionManage)
		o, err = e.overrides.Find(ctx, principalID, string(manage))
		switch {
		case err == nil:
			if o.Granted {
				return Allow(), nil
			}
		case !overrides.IsNotFound(err):
			return e.failClosed(principalID, perm, err)
		}
	}

	return Deny(ReasonRoleLacksPermission), nil
}

// failClosed logs a store failure and converts it to a denial plus a
// surfaced StoreError. Never allows.
func (e *Engine) failClosed(principalID string, perm Permission, err error) (Decision, error) {
	errutil.LogError(e.logger, "override lookup failed, denying", err)
	recordStoreFailure("find")
	return Deny(ReasonStoreUnavailable),
		oops.In("authz").Code("OVERRIDE_LOOKUP_FAILED").
			With("principal_id", principalID).With("permission", string(perm)).
			Wrap(err)
}

// EffectivePermissions resolves the full permission set a principal holds:
// the role's static set (the whole catalog for SUPER_ADMIN) plus granted
// overrides, minus denied overrides. Overrides are applied last and win per
// pair regardless of direction.
func (e *Engine) EffectivePermissions(ctx context.Context, principalID string, role Role) ([]Permission, error) {
	set := make(map[Permission]struct{})
	for _, p := range Permissions() {
		if RoleHasPermission(role, p) {
			set[p] = struct{}{}
		}
	}

	if role == RoleSuperAdmin {
		return sortedPermissions(set), nil
	}

	list, err := e.overrides.List(ctx, principalID)
	if err != nil {
		recordStoreFailure("list")
		return nil, oops.In("authz").Code("OVERRIDE_LIST_FAILED").With("principal_id", principalID).Wrap(err)
	}
	for _, o := range list {
		p := Permission(o.Permission)
		if !ValidPermission(p) {
			// A row predating a catalog change; ignore rather than
			// resurrect a retired permission.
			e.logger.Warn("skipping override with unknown permission",
				"principal_id", principalID, "permission", o.Permission)
			continue
		}
		if o.Granted {
			set[p] = struct{}{}
		} else {
			delete(set, p)
		}
	}
	return sortedPermissions(set), nil
}

func sortedPermissions(set map[Permission]struct{}) []Permission {
	perms := make([]Permission, 0, len(set))
	for p := range set {
		perms = append(perms, p)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}

// Grant upserts an override adding perm to the principal's effective set.
//
// Grant, Deny, and Revoke do not authorize their caller: an engine that
// required its own output to authorize its own mutation would risk circular
// resolution. The admin layer in front of them must hold permissions:manage
// and pass CanManageUser against the target before calling.
func (e *Engine) Grant(ctx context.Context, principalID string, perm Permission) error {
	return e.writeOverride(ctx, principalID, perm, true)
}

// Deny upserts an override removing perm from the principal's effective set
// even if their role grants it. See Grant for the caller contract.
func (e *Engine) Deny(ctx context.Context, principalID string, perm Permission) error {
	return e.writeOverride(ctx, principalID, perm, false)
}

func (e *Engine) writeOverride(ctx context.Context, principalID string, perm Permission, granted bool) error {
	if !ValidPermission(perm) {
		return oops.In("authz").Code("INVALID_PERMISSION").With("permission", string(perm)).Errorf("permission not in catalog")
	}
	if err := e.overrides.Upsert(ctx, principalID, string(perm), granted); err != nil {
		recordStoreFailure("upsert")
		return oops.In("authz").Code("OVERRIDE_UPSERT_FAILED").
			With("principal_id", principalID).With("permission", string(perm)).
			Wrap(err)
	}
	return nil
}

// Revoke deletes any override for the pair, reverting the principal to pure
// role-derived behavior. See Grant for the caller contract.
func (e *Engine) Revoke(ctx context.Context, principalID string, perm Permission) error {
	if !ValidPermission(perm) {
		return oops.In("authz").Code("INVALID_PERMISSION").With("permission", string(perm)).Errorf("permission not in catalog")
	}
	if err := e.overrides.Delete(ctx, principalID, string(perm)); err != nil {
		recordStoreFailure("delete")
		return oops.In("authz").Code("OVERRIDE_DELETE_FAILED").
			With("principal_id", principalID).With("permission", string(perm)).
			Wrap(err)
	}
	return nil
}
