// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/fleetrent/fleetrent/internal/authz"
)

// NewCheckCmd creates the check subcommand.
func NewCheckCmd() *cobra.Command {
	var (
		static bool
		own    bool
	)

	cmd := &cobra.Command{
		Use:   "check <principal-id> <role> <permission>",
		Short: "Check whether a principal holds a permission",
		Long: `Evaluate a permission check. By default overrides stored for the
principal are consulted; --static evaluates the role alone.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			principalID := args[0]

			role, err := authz.ParseRole(args[1])
			if err != nil {
				return err
			}
			perm, err := authz.ParsePermission(args[2])
			if err != nil {
				return err
			}
			opts := authz.CheckOptions{OwnResource: own}

			var decision authz.Decision
			if static {
				decision = authz.CheckStatic(role, perm, opts)
			} else {
				d, closeFn, err := buildDeps(cmd.Context(), cmd)
				if err != nil {
					return err
				}
				defer closeFn()

				decision, err = d.engine.CheckDynamic(cmd.Context(), principalID, role, perm, opts)
				if err != nil {
					return err
				}
			}

			if decision.IsAllowed() {
				cmd.Println("allowed")
				return nil
			}
			cmd.Printf("denied: %s\n", decision.Reason)
			return nil
		},
	}

	cmd.Flags().BoolVar(&static, "static", false, "evaluate the role alone, without stored overrides")
	cmd.Flags().BoolVar(&own, "own", false, "the principal owns the target resource")

	return cmd
}
