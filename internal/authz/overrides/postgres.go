// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

package overrides

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// for unit tests.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
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

const overrideColumns = `id, principal_id, permission, granted, created_at, updated_at`

// Find returns the override for the pair, or OVERRIDE_NOT_FOUND.
func (s *PostgresStore) Find(ctx context.Context, principalID, permission string) (*Override, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+overrideColumns+` FROM permission_overrides WHERE principal_id = $1 AND permission = $2`,
		principalID, permission)

	var o Override
	err := row.Scan(&o.ID, &o.PrincipalID, &o.Permission, &o.Granted, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("OVERRIDE_NOT_FOUND").
			With("principal_id", principalID).With("permission", permission).
			Errorf("override not found")
	}
	if err != nil {
		return nil, oops.Code("OVERRIDE_LOOKUP_FAILED").
			With("principal_id", principalID).With("permission", permission).
			Wrap(err)
	}
	return &o, nil
}

// Upsert creates or replaces the override for the pair. The unique key on
// (principal_id, permission) makes concurrent upserts converge to a single
// row; transient serialization conflicts are retried with backoff.
func (s *PostgresStore) Upsert(ctx context.Context, principalID, permission string, granted bool) error {
	backoff := retry.WithMaxRetries(3, retry.NewExponential(10*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO permission_overrides (id, principal_id, permission, granted)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (principal_id, permission)
			DO UPDATE SET granted = EXCLUDED.granted, updated_at = now()
		`, ulid.Make().String(), principalID, permission, granted)
		if isTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return oops.Code("OVERRIDE_UPSERT_FAILED").
			With("principal_id", principalID).With("permission", permission).With("granted", granted).
			Wrap(err)
	}
	return nil
}

// Delete removes any override for the pair. Zero rows affected is fine.
func (s *PostgresStore) Delete(ctx context.Context, principalID, permission string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM permission_overrides WHERE principal_id = $1 AND permission = $2`,
		principalID, permission)
	if err != nil {
		return oops.Code("OVERRIDE_DELETE_FAILED").
			With("principal_id", principalID).With("permission", permission).
			Wrap(err)
	}
	return nil
}

// List returns all overrides for a principal, ordered by permission.
func (s *PostgresStore) List(ctx context.Context, principalID string) ([]Override, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+overrideColumns+` FROM permission_overrides WHERE principal_id = $1 ORDER BY permission`,
		principalID)
	if err != nil {
		return nil, oops.Code("OVERRIDE_LIST_FAILED").With("principal_id", principalID).Wrap(err)
	}
	defer rows.Close()

	var list []Override
	for rows.Next() {
		var o Override
		if err := rows.Scan(&o.ID, &o.PrincipalID, &o.Permission, &o.Granted, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, oops.Code("OVERRIDE_LIST_FAILED").With("principal_id", principalID).Wrap(err)
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("OVERRIDE_LIST_FAILED").With("principal_id", principalID).Wrap(err)
	}
	return list, nil
}

// isTransient reports whether err is a conflict worth retrying: a
// serialization failure, a deadlock, or a unique-key race that slipped in
// under the upsert.
func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.UniqueViolation:
		return true
	}
	return false
}
