// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

package main

import (
	"encoding/json"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/fleetrent/fleetrent/internal/authz/audit"
)

// NewAuditCmd creates the audit subcommand.
func NewAuditCmd() *cobra.Command {
	var (
		actorID    string
		action     string
		resource   string
		resourceID string
		since      string
		until      string
		limit      int
		offset     int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query the audit trail",
		Long:  `List audit entries, newest first, filtered by actor, action, resource, and time range.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := audit.Filters{
				ActorID:    actorID,
				Action:     action,
				Resource:   resource,
				ResourceID: resourceID,
				Limit:      limit,
				Offset:     offset,
			}

			var err error
			if f.From, err = parseTimeFlag(since); err != nil {
				return err
			}
			if f.To, err = parseTimeFlag(until); err != nil {
				return err
			}

			d, closeFn, err := buildDeps(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			entries, total, err := d.recorder.Query(cmd.Context(), f)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				for _, e := range entries {
					if err := enc.Encode(e); err != nil {
						return err
					}
				}
				return nil
			}

			for _, e := range entries {
				cmd.Printf("%s  %-20s  %-24s  %s/%s\n",
					e.CreatedAt.Format(time.RFC3339), e.ActorID, e.Action, e.Resource, e.ResourceID)
			}
			cmd.Printf("%d of %d entries\n", len(entries), total)
			return nil
		},
	}

	cmd.Flags().StringVar(&actorID, "actor", "", "filter by acting principal")
	cmd.Flags().StringVar(&action, "action", "", "filter by action, e.g. permission.grant")
	cmd.Flags().StringVar(&resource, "resource", "", "filter by resource class")
	cmd.Flags().StringVar(&resourceID, "resource-id", "", "filter by resource identifier")
	cmd.Flags().StringVar(&since, "since", "", "only entries at or after this RFC 3339 time")
	cmd.Flags().StringVar(&until, "until", "", "only entries at or before this RFC 3339 time")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (default 50, max 100)")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit entries as JSON lines")

	return cmd
}

func parseTimeFlag(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, oops.Code("INVALID_TIME").With("value", v).Wrap(err)
	}
	return t, nil
}
