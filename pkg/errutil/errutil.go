// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

// Package errutil provides logging and test helpers for oops-coded errors.
package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// attrs extracts structured logging attributes from an error. For oops
// errors the message, code, and context are split out; anything else is
// logged as a flat string.
func attrs(err error) []any {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return []any{"error", err}
	}
	out := []any{"error", oopsErr.Error()}
	if code := oopsErr.Code(); code != "" {
		out = append(out, "code", code)
	}
	if ctx := oopsErr.Context(); len(ctx) > 0 {
		out = append(out, "context", ctx)
	}
	return out
}

// LogError logs an error at error level with structured oops context.
func LogError(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, attrs(err)...)
}

// LogWarn logs an error at warn level with structured oops context. Used
// for recovered failures that must not interrupt the caller, such as audit
// writes.
func LogWarn(logger *slog.Logger, msg string, err error) {
	logger.Warn(msg, attrs(err)...)
}
