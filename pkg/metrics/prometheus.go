// Package metrics provides Prometheus metrics for the food LCA pipeline.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for one pipeline run.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer
	gatherer         prometheus.Gatherer

	// Ingestion
	recordsParsed     prometheus.Counter
	rowsRejected      prometheus.Counter
	encodingFallbacks prometheus.Counter

	// Mapping and aggregation
	matchSetSize      *prometheus.GaugeVec
	emptyCategories   prometheus.Counter
	missingQuantities *prometheus.CounterVec
	fallbackFills     *prometheus.CounterVec

	// Stage timings
	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec

	// Simulation and calibration
	simulatedTotal        *prometheus.GaugeVec
	skippedCategories     prometheus.Counter
	calibrationIterations prometheus.Gauge
	calibrationErrorPct   prometheus.Gauge
	calibrationAdjustment prometheus.Gauge

	// Worker pool
	workerJobs    *prometheus.CounterVec
	workerLimit   prometheus.Gauge
	workerLatency prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "foodlca",
		subsystem:        "pipeline",
		histogramBuckets: []float64{0.5, 1, 5, 10, 50, 100, 500, 1000, 5000},
		enabled:          true,
		constLabels:      make(map[string]string),
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}
	if g, ok := m.registry.(prometheus.Gatherer); ok {
		m.gatherer = g
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: name, Help: help, ConstLabels: m.constLabels,
	}
}

func (m *Manager) gauge(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: name, Help: help, ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogram(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.recordsParsed = auto.NewCounter(m.counter("records_parsed_total",
		"Total number of database rows parsed into records"))
	m.rowsRejected = auto.NewCounter(m.counter("rows_rejected_total",
		"Total number of malformed database rows"))
	m.encodingFallbacks = auto.NewCounter(m.counter("encoding_fallbacks_total",
		"Number of inputs decoded with the fallback encoding"))

	m.matchSetSize = auto.NewGaugeVec(m.gauge("match_set_size",
		"Deduplicated records matched per category"), []string{"category"})
	m.emptyCategories = auto.NewCounter(m.counter("empty_categories_total",
		"Categories whose match set was empty"))
	m.missingQuantities = auto.NewCounterVec(m.counter("missing_quantities_total",
		"Aggregated quantities with no contributing values"), []string{"quantity"})
	m.fallbackFills = auto.NewCounterVec(m.counter("fallback_fills_total",
		"Missing quantities filled from the fallback table"), []string{"quantity"})

	m.stageDuration = auto.NewHistogramVec(m.histogram("stage_duration_milliseconds",
		"Pipeline stage duration in milliseconds"), []string{"stage"})
	m.stageErrors = auto.NewCounterVec(m.counter("stage_errors_total",
		"Pipeline stage failures by stage and error kind"), []string{"stage", "kind"})

	m.simulatedTotal = auto.NewGaugeVec(m.gauge("simulated_total",
		"Latest simulated population totals by quantity"), []string{"quantity"})
	m.skippedCategories = auto.NewCounter(m.counter("skipped_categories_total",
		"Diet categories skipped for lack of a factor"))
	m.calibrationIterations = auto.NewGauge(m.gauge("calibration_iterations",
		"Iterations used by the last calibration session"))
	m.calibrationErrorPct = auto.NewGauge(m.gauge("calibration_error_percent",
		"Signed error of the last calibration evaluation in percent"))
	m.calibrationAdjustment = auto.NewGauge(m.gauge("calibration_adjustment",
		"Cumulative multiplicative adjustment applied by calibration"))

	m.workerJobs = auto.NewCounterVec(m.counter("worker_jobs_total",
		"Per-category jobs run by the worker pool"), []string{"status"})
	m.workerLimit = auto.NewGauge(m.gauge("worker_limit",
		"Concurrency limit of the worker pool"))
	m.workerLatency = auto.NewHistogram(m.histogram("worker_job_latency_milliseconds",
		"Per-category job latency in milliseconds"))
}

// RecordRecordsParsed adds n to the parsed records counter.
func (m *Manager) RecordRecordsParsed(n int) {
	if m.enabled {
		m.recordsParsed.Add(float64(n))
	}
}

// RecordRowRejected increments the rejected rows counter.
func (m *Manager) RecordRowRejected() {
	if m.enabled {
		m.rowsRejected.Inc()
	}
}

// RecordEncodingFallback increments the encoding fallback counter.
func (m *Manager) RecordEncodingFallback() {
	if m.enabled {
		m.encodingFallbacks.Inc()
	}
}

// UpdateMatchSetSize records the match set size of a category.
func (m *Manager) UpdateMatchSetSize(category string, n int) {
	if !m.enabled {
		return
	}
	m.matchSetSize.WithLabelValues(category).Set(float64(n))
	if n == 0 {
		m.emptyCategories.Inc()
	}
}

// RecordMissingQuantity increments the missing quantity counter.
func (m *Manager) RecordMissingQuantity(quantity string) {
	if m.enabled {
		m.missingQuantities.WithLabelValues(quantity).Inc()
	}
}

// RecordFallbackFill increments the fallback fill counter.
func (m *Manager) RecordFallbackFill(quantity string) {
	if m.enabled {
		m.fallbackFills.WithLabelValues(quantity).Inc()
	}
}

// RecordStageDuration observes a stage duration in milliseconds.
func (m *Manager) RecordStageDuration(stage string, ms float64) {
	if m.enabled {
		m.stageDuration.WithLabelValues(stage).Observe(ms)
	}
}

// RecordStageError increments the stage error counter.
func (m *Manager) RecordStageError(stage, kind string) {
	if m.enabled {
		m.stageErrors.WithLabelValues(stage, kind).Inc()
	}
}

// UpdateSimulatedTotal records a simulated population total.
func (m *Manager) UpdateSimulatedTotal(quantity string, v float64) {
	if m.enabled {
		m.simulatedTotal.WithLabelValues(quantity).Set(v)
	}
}

// RecordSkippedCategory increments the skipped diet category counter.
func (m *Manager) RecordSkippedCategory() {
	if m.enabled {
		m.skippedCategories.Inc()
	}
}

// UpdateCalibration records the state of the last calibration evaluation.
func (m *Manager) UpdateCalibration(iterations int, errorPct, adjustment float64) {
	if !m.enabled {
		return
	}
	m.calibrationIterations.Set(float64(iterations))
	m.calibrationErrorPct.Set(errorPct)
	m.calibrationAdjustment.Set(adjustment)
}

// RecordWorkerJob records one finished pool job.
func (m *Manager) RecordWorkerJob(ok bool, ms float64) {
	if !m.enabled {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.workerJobs.WithLabelValues(status).Inc()
	m.workerLatency.Observe(ms)
}

// UpdateWorkerLimit records the pool concurrency limit.
func (m *Manager) UpdateWorkerLimit(n int) {
	if m.enabled {
		m.workerLimit.Set(float64(n))
	}
}

// WriteTextfile writes every gathered metric to path in the Prometheus text
// format, for pickup by a node exporter textfile collector.
func (m *Manager) WriteTextfile(path string) error {
	if m.gatherer == nil {
		return fmt.Errorf("%w: registry is not a gatherer", ErrWriteFailed)
	}
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

// Package-level helpers on the global manager.

// RecordRecordsParsed adds n to the parsed records counter.
func RecordRecordsParsed(n int) { globalManager.RecordRecordsParsed(n) }

// RecordRowRejected increments the rejected rows counter.
func RecordRowRejected() { globalManager.RecordRowRejected() }

// RecordEncodingFallback increments the encoding fallback counter.
func RecordEncodingFallback() { globalManager.RecordEncodingFallback() }

// UpdateMatchSetSize records the match set size of a category.
func UpdateMatchSetSize(category string, n int) { globalManager.UpdateMatchSetSize(category, n) }

// RecordMissingQuantity increments the missing quantity counter.
func RecordMissingQuantity(quantity string) { globalManager.RecordMissingQuantity(quantity) }

// RecordFallbackFill increments the fallback fill counter.
func RecordFallbackFill(quantity string) { globalManager.RecordFallbackFill(quantity) }

// RecordStageDuration observes a stage duration in milliseconds.
func RecordStageDuration(stage string, ms float64) { globalManager.RecordStageDuration(stage, ms) }

// RecordStageError increments the stage error counter.
func RecordStageError(stage, kind string) { globalManager.RecordStageError(stage, kind) }

// UpdateSimulatedTotal records a simulated population total.
func UpdateSimulatedTotal(quantity string, v float64) {
	globalManager.UpdateSimulatedTotal(quantity, v)
}

// RecordSkippedCategory increments the skipped diet category counter.
func RecordSkippedCategory() { globalManager.RecordSkippedCategory() }

// UpdateCalibration records the state of the last calibration evaluation.
func UpdateCalibration(iterations int, errorPct, adjustment float64) {
	globalManager.UpdateCalibration(iterations, errorPct, adjustment)
}

// RecordWorkerJob records one finished pool job.
func RecordWorkerJob(ok bool, ms float64) { globalManager.RecordWorkerJob(ok, ms) }

// UpdateWorkerLimit records the pool concurrency limit.
func UpdateWorkerLimit(n int) { globalManager.UpdateWorkerLimit(n) }

// WriteTextfile writes the global registry to path.
func WriteTextfile(path string) error { return globalManager.WriteTextfile(path) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
