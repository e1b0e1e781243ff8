// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package plugin

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status constants for plugin operation metrics.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Component labels.
const (
	ComponentInstaller = "installer"
	ComponentConverter = "converter"
)

// OperationsTotal counts installer and converter operations.
// Use RegisterMetrics to register this with a Prometheus registry.
var OperationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rubick_plugin_operations_total",
		Help: "Total number of plugin install/convert operations",
	},
	[]string{"component", "operation", "status"},
)

// OperationDuration is the histogram for plugin operation duration.
// Use RegisterMetrics to register this with a Prometheus registry.
var OperationDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "rubick_plugin_operation_duration_seconds",
		Help:    "Plugin operation duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"component", "operation"},
)

// RegisterMetrics registers plugin metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(OperationsTotal)
	reg.MustRegister(OperationDuration)
}

// RecordOperation records the outcome and duration of one operation that
// started at start.
func RecordOperation(component, operation string, start time.Time, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	OperationsTotal.WithLabelValues(component, operation, status).Inc()
	OperationDuration.WithLabelValues(component, operation).Observe(time.Since(start).Seconds())
}
