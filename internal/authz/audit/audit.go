// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

// Package audit records privileged mutations for later review.
//
// Entries are append-only: the engine never updates or deletes them, and
// retention is an external operational concern. Recording never fails the
// caller — persistence failures are logged, counted, spilled to a local
// WAL, and swallowed, because audit failure must not block or roll back the
// business operation it describes.
package audit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Action taxonomy values used by the admin layer. Callers may record their
// own values; the engine treats the field as opaque beyond being non-empty.
const (
	ActionPermissionGrant  = "permission.grant"
	ActionPermissionDeny   = "permission.deny"
	ActionPermissionRevoke = "permission.revoke"
	ActionRoleChange       = "user.role_change"
)

// Entry is one immutable audit record.
type Entry struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actor_id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID string         `json:"resource_id,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	IPAddress  string         `json:"ip_address,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Filters narrows a Query. Zero values mean "no constraint".
type Filters struct {
	ActorID    string
	Action     string
	Resource   string
	ResourceID string
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

// Query paging bounds.
const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Writer appends entries to a backend.
type Writer interface {
	Append(ctx context.Context, entries []Entry) error
}

// Querier retrieves entries ordered by creation time descending, plus the
// total number of rows matching the filters. It performs no authorization:
// callers must gate audit_logs:read before querying.
type Querier interface {
	Query(ctx context.Context, f Filters) ([]Entry, int, error)
}

// Store combines both sides of the audit backend.
type Store interface {
	Writer
	Querier
}

var (
	failuresCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authz_audit_failures_total",
		Help: "Total number of audit recording failures",
	}, []string{"reason"})

	channelFullCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authz_audit_channel_full_total",
		Help: "Total number of times the async audit channel was full",
	})

	walEntriesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "authz_audit_wal_entries",
		Help: "Current number of entries spilled to the audit WAL",
	})
)
