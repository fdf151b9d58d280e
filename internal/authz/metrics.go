// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

package authz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// checkDuration tracks the latency of permission checks.
	checkDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "authz_check_duration_seconds",
		Help:    "Histogram of permission check latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	// decisions counts permission checks by source and outcome.
	decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authz_decisions_total",
		Help: "Total number of permission check decisions",
	}, []string{"source", "outcome"})

	// storeFailures counts override store failures by operation. Every
	// failure here corresponds to a fail-closed denial or a surfaced
	// StoreError.
	storeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authz_override_store_failures_total",
		Help: "Total number of override store failures",
	}, []string{"operation"})
)

func recordDecision(source string, d Decision, duration time.Duration) {
	checkDuration.WithLabelValues(source).Observe(duration.Seconds())
	outcome := "deny"
	if d.IsAllowed() {
		outcome = "allow"
	}
	decisions.WithLabelValues(source, outcome).Inc()
}

func recordStoreFailure(operation string) {
	storeFailures.WithLabelValues(operation).Inc()
}
