// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the FleetRent authorization CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fleetrent",
		Short: "FleetRent authorization and audit engine",
		Long: `Administer the FleetRent authorization engine: run permission
checks, manage per-principal overrides, and query the audit trail.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	cmd.PersistentFlags().String("database.url", "", "PostgreSQL connection URL")
	cmd.PersistentFlags().String("log.format", "", "log format (json or text)")
	cmd.PersistentFlags().String("audit.wal_path", "", "audit write-ahead log path")

	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewEffectiveCmd())
	cmd.AddCommand(NewGrantCmd())
	cmd.AddCommand(NewDenyCmd())
	cmd.AddCommand(NewRevokeCmd())
	cmd.AddCommand(NewAuditCmd())

	return cmd
}
