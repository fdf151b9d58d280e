// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/fleetrent/fleetrent/internal/authz"
	"github.com/fleetrent/fleetrent/internal/authz/audit"
	"github.com/fleetrent/fleetrent/internal/authz/overrides"
	"github.com/fleetrent/fleetrent/internal/config"
	"github.com/fleetrent/fleetrent/internal/logging"
	"github.com/fleetrent/fleetrent/internal/store"
)

// deps bundles everything a database-backed subcommand needs.
type deps struct {
	cfg      *config.Config
	logger   *slog.Logger
	pool     *pgxpool.Pool
	engine   *authz.Engine
	recorder *audit.Recorder
}

// loadConfig reads configuration for a command, layering the command's
// flags over the optional config file. DATABASE_URL from the environment
// fills in when neither provides a database URL.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}

// buildDeps connects to the database and wires up the engine and audit
// recorder. Callers must invoke close when done.
func buildDeps(ctx context.Context, cmd *cobra.Command) (*deps, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.URL == "" {
		return nil, nil, oops.Code("CONFIG_INVALID").
			Errorf("database URL is required (flag --database.url, config file, or DATABASE_URL)")
	}

	logger := logging.Setup("fleetrent", cfg.Log.Format, os.Stderr)

	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}

	engine := authz.NewEngine(overrides.NewPostgresStore(pool), logger)
	recorder := audit.NewRecorder(audit.NewPostgresStore(pool), cfg.Audit.WALPath, logger,
		audit.WithBatchSize(cfg.Audit.BatchSize))

	d := &deps{cfg: cfg, logger: logger, pool: pool, engine: engine, recorder: recorder}
	closeFn := func() {
		if err := recorder.Close(); err != nil {
			logger.Warn("audit recorder close failed", "error", err)
		}
		pool.Close()
	}
	return d, closeFn, nil
}
