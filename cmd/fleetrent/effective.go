// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/fleetrent/fleetrent/internal/authz"
)

// NewEffectiveCmd creates the effective subcommand.
func NewEffectiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "effective <principal-id> <role>",
		Short: "List a principal's effective permissions",
		Long: `List the permissions a principal holds after applying stored
overrides on top of their role's permission set.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := authz.ParseRole(args[1])
			if err != nil {
				return err
			}

			d, closeFn, err := buildDeps(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			perms, err := d.engine.EffectivePermissions(cmd.Context(), args[0], role)
			if err != nil {
				return err
			}
			for _, p := range perms {
				cmd.Println(string(p))
			}
			return nil
		},
	}
}
