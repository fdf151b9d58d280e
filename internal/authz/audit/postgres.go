// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"
)

// pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// for unit tests.
type pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	pool pool
}

// NewPostgresStore creates a PostgresStore backed by the given connection
// pool.
func NewPostgresStore(pool pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const insertEntry = `
	INSERT INTO audit_logs (id, actor_id, action, resource, resource_id, details, ip_address, user_agent, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const entryColumns = `id, actor_id, action, resource, resource_id, details, ip_address, user_agent, created_at`

// Append inserts entries in a single batch round trip.
func (s *PostgresStore) Append(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	b := &pgx.Batch{}
	queued := 0
	for _, e := range entries {
		details, err := json.Marshal(e.Details)
		if err != nil {
			return oops.Code("AUDIT_APPEND_FAILED").With("id", e.ID).With("operation", "encode details").Wrap(err)
		}
		b.Queue(insertEntry, e.ID, e.ActorID, e.Action, e.Resource, e.ResourceID,
			details, e.IPAddress, e.UserAgent, e.CreatedAt)
		queued++
	}

	br := s.pool.SendBatch(ctx, b)
	defer br.Close() //nolint:errcheck // exec errors are surfaced below

	for range queued {
		if _, err := br.Exec(); err != nil {
			return oops.Code("AUDIT_APPEND_FAILED").With("count", queued).Wrap(err)
		}
	}
	return nil
}

// Query returns entries matching the filters ordered by creation time
// descending, plus the total match count for pagination.
func (s *PostgresStore) Query(ctx context.Context, f Filters) ([]Entry, int, error) {
	where, args := buildWhere(f)

	var total int
	countQuery := "SELECT count(*) FROM audit_logs" + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, oops.Code("AUDIT_QUERY_FAILED").With("operation", "count").Wrap(err)
	}

	query := fmt.Sprintf("SELECT %s FROM audit_logs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		entryColumns, where, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, oops.Code("AUDIT_QUERY_FAILED").With("operation", "select").Wrap(err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var details []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Resource, &e.ResourceID,
			&details, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, 0, oops.Code("AUDIT_QUERY_FAILED").With("operation", "scan").Wrap(err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, 0, oops.Code("AUDIT_QUERY_FAILED").With("id", e.ID).With("operation", "decode details").Wrap(err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, oops.Code("AUDIT_QUERY_FAILED").With("operation", "iterate").Wrap(err)
	}
	return entries, total, nil
}

// buildWhere translates filters into a WHERE clause and its arguments.
func buildWhere(f Filters) (string, []any) {
	var clauses []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if f.ActorID != "" {
		add("actor_id = $%d", f.ActorID)
	}
	if f.Action != "" {
		add("action = $%d", f.Action)
	}
	if f.Resource != "" {
		add("resource = $%d", f.Resource)
	}
	if f.ResourceID != "" {
		add("resource_id = $%d", f.ResourceID)
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at <= $%d", f.To)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
