// Package metrics provides Prometheus instrumentation for Forklift
// pipeline runs. It offers collectors for per-table row counts, stage
// durations, and error classification.
//
// # Basic Usage
//
//	// Record generated rows
//	metrics.RowsGenerated.WithLabelValues("orders").Add(500)
//
//	// Track a stage duration
//	timer := metrics.NewStageTimer("transform")
//	runTransform()
//	timer.ObserveDuration()
//
// Counter: monotonically increasing values (rows written, errors)
// Gauge: values that can go up or down (rows held in memory)
// Histogram: distribution of values (stage and table-load durations)
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsGenerated tracks raw rows produced by the generators.
	// Labels: table (raw table name)
	RowsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forklift_rows_generated_total",
			Help: "Total number of raw rows generated",
		},
		[]string{"table"},
	)

	// RowsTransformed tracks dimension and fact rows produced by the
	// star-schema transform. Labels: table (warehouse table name)
	RowsTransformed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forklift_rows_transformed_total",
			Help: "Total number of dimension and fact rows produced",
		},
		[]string{"table"},
	)

	// RowsLoaded tracks rows written to the destination.
	// Labels: table, mode (full-refresh/upsert), status (success/failure)
	RowsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forklift_rows_loaded_total",
			Help: "Total number of rows written to the warehouse",
		},
		[]string{"table", "mode", "status"},
	)

	// Errors tracks pipeline errors by classification.
	// Labels: stage (generate/transform/load), type (config/reference/integrity/write/timeout/internal)
	Errors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forklift_errors_total",
			Help: "Total number of pipeline errors by stage and type",
		},
		[]string{"stage", "type"},
	)

	// StageDuration tracks wall-clock seconds per pipeline stage.
	// Labels: stage
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forklift_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
		[]string{"stage"},
	)

	// TableLoadDuration tracks seconds per destination table write.
	// Labels: table, mode
	TableLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forklift_table_load_duration_seconds",
			Help:    "Duration of per-table warehouse writes",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		},
		[]string{"table", "mode"},
	)

	// DatasetBytes tracks bytes written per raw dataset file.
	// Labels: table, format
	DatasetBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forklift_dataset_bytes_total",
			Help: "Total bytes written to raw dataset files",
		},
		[]string{"table", "format"},
	)
)

// Timer measures elapsed time and records it into a histogram on stop
type Timer struct {
	start   time.Time
	observe func(float64)
}

// NewStageTimer starts a timer that records into StageDuration for the
// given stage when ObserveDuration is called.
func NewStageTimer(stage string) *Timer {
	h := StageDuration.WithLabelValues(stage)
	return &Timer{
		start:   time.Now(),
		observe: h.Observe,
	}
}

// NewTableLoadTimer starts a timer that records into TableLoadDuration
func NewTableLoadTimer(table, mode string) *Timer {
	h := TableLoadDuration.WithLabelValues(table, mode)
	return &Timer{
		start:   time.Now(),
		observe: h.Observe,
	}
}

// ObserveDuration stops the timer and records the elapsed seconds.
// It returns the elapsed duration for logging.
func (t *Timer) ObserveDuration() time.Duration {
	elapsed := time.Since(t.start)
	t.observe(elapsed.Seconds())
	return elapsed
}

// RecordError increments the error counter for a stage and error type
func RecordError(stage, errType string) {
	Errors.WithLabelValues(stage, errType).Inc()
}
