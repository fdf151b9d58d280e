// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

// Package config loads engine configuration from an optional YAML file with
// command-line flag overrides.
package config

import (
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config holds everything the engine and CLI need at startup.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Audit    AuditConfig    `koanf:"audit"`
	Log      LogConfig      `koanf:"log"`
}

// DatabaseConfig holds connection settings.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// AuditConfig tunes the audit recorder.
type AuditConfig struct {
	WALPath   string `koanf:"wal_path"`
	BatchSize int    `koanf:"batch_size"`
}

// LogConfig controls log output.
type LogConfig struct {
	Format string `koanf:"format"`
}

// Default values applied before file and flag layers.
const (
	DefaultWALPath   = "audit-wal.jsonl"
	DefaultBatchSize = 100
	DefaultLogFormat = "json"
)

// Load builds a Config from defaults, an optional YAML file, and flag
// overrides, in that order of precedence (flags win). path may be empty;
// flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	cfg := Config{
		Audit: AuditConfig{WALPath: DefaultWALPath, BatchSize: DefaultBatchSize},
		Log:   LogConfig{Format: DefaultLogFormat},
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		// Only flags the user actually set may override; an untouched
		// flag must not clobber file values or defaults with its empty
		// zero value.
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return f.Name, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that have no usable zero value.
func (c *Config) Validate() error {
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").With("log.format", c.Log.Format).
			Errorf("log format must be json or text")
	}
	if c.Audit.BatchSize <= 0 {
		return oops.Code("CONFIG_INVALID").With("audit.batch_size", c.Audit.BatchSize).
			Errorf("audit batch size must be positive")
	}
	return nil
}
