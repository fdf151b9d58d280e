// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

package main

import (
	"context"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/fleetrent/fleetrent/internal/authz"
	"github.com/fleetrent/fleetrent/internal/authz/audit"
)

// overrideWrite is the shared shape of the grant, deny, and revoke commands:
// gate on the actor, apply the override, record the audit entry.
type overrideWrite struct {
	use         string
	short       string
	auditAction string
	granted     string
	apply       func(*authz.Engine, context.Context, string, authz.Permission) error
}

func newOverrideCmd(w overrideWrite) *cobra.Command {
	var (
		actorID    string
		actorRole  string
		targetRole string
	)

	cmd := &cobra.Command{
		Use:   w.use,
		Short: w.short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			principalID := args[0]

			perm, err := authz.ParsePermission(args[1])
			if err != nil {
				return err
			}
			aRole, err := authz.ParseRole(actorRole)
			if err != nil {
				return err
			}
			tRole, err := authz.ParseRole(targetRole)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			d, closeFn, err := buildDeps(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			decision, err := d.engine.CheckDynamic(ctx, actorID, aRole,
				authz.Perm(authz.ResourcePermissions, authz.ActionManage), authz.CheckOptions{})
			if err != nil {
				return err
			}
			if !decision.IsAllowed() {
				return oops.Code("FORBIDDEN").With("actor_id", actorID).With("reason", decision.Reason).
					Errorf("actor may not manage permissions")
			}
			if !authz.CanManageUser(aRole, tRole) {
				return oops.Code("FORBIDDEN").With("actor_role", aRole.String()).
					With("target_role", tRole.String()).
					Errorf("actor role may not manage principals of the target role")
			}

			if err := w.apply(d.engine, ctx, principalID, perm); err != nil {
				return err
			}

			d.recorder.Record(ctx, audit.Entry{
				ActorID:    actorID,
				Action:     w.auditAction,
				Resource:   "permissions",
				ResourceID: principalID,
				Details: map[string]any{
					"permission": string(perm),
					"granted":    w.granted,
				},
			})

			cmd.Printf("%s %s for %s\n", w.auditAction, perm, principalID)
			return nil
		},
	}

	cmd.Flags().StringVar(&actorID, "actor", "", "principal performing the change")
	cmd.Flags().StringVar(&actorRole, "actor-role", "", "role of the acting principal")
	cmd.Flags().StringVar(&targetRole, "target-role", authz.RoleUser.String(), "role of the affected principal")
	_ = cmd.MarkFlagRequired("actor")
	_ = cmd.MarkFlagRequired("actor-role")

	return cmd
}

// NewGrantCmd creates the grant subcommand.
func NewGrantCmd() *cobra.Command {
	return newOverrideCmd(overrideWrite{
		use:         "grant <principal-id> <permission>",
		short:       "Grant a permission to a principal beyond their role",
		auditAction: audit.ActionPermissionGrant,
		granted:     "true",
		apply: func(e *authz.Engine, ctx context.Context, id string, p authz.Permission) error {
			return e.Grant(ctx, id, p)
		},
	})
}

// NewDenyCmd creates the deny subcommand.
func NewDenyCmd() *cobra.Command {
	return newOverrideCmd(overrideWrite{
		use:         "deny <principal-id> <permission>",
		short:       "Deny a permission a principal's role would otherwise allow",
		auditAction: audit.ActionPermissionDeny,
		granted:     "false",
		apply: func(e *authz.Engine, ctx context.Context, id string, p authz.Permission) error {
			return e.Deny(ctx, id, p)
		},
	})
}

// NewRevokeCmd creates the revoke subcommand.
func NewRevokeCmd() *cobra.Command {
	return newOverrideCmd(overrideWrite{
		use:         "revoke <principal-id> <permission>",
		short:       "Remove a stored override, restoring role defaults",
		auditAction: audit.ActionPermissionRevoke,
		granted:     "removed",
		apply: func(e *authz.Engine, ctx context.Context, id string, p authz.Permission) error {
			return e.Revoke(ctx, id, p)
		},
	})
}
