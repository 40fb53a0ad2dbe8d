package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/openfroyo/confsync/pkg/engine"
)

// Metrics provides Prometheus metrics for confsync. It implements
// engine.MetricsRecorder.
type Metrics struct {
	config MetricsConfig

	// Plan metrics
	plannedOperations  *prometheus.GaugeVec
	validationFindings *prometheus.CounterVec
	cyclesBroken       prometheus.Counter

	// Apply metrics
	operationsApplied *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	applyDuration     *prometheus.HistogramVec
	appliesCompleted  *prometheus.CounterVec

	registry *prometheus.Registry
}

var _ engine.MetricsRecorder = (*Metrics)(nil)

// NewMetrics creates a new metrics collector with its own registry.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		plannedOperations: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "plan_operations",
				Help:      "Number of operations of the last built plan by type",
			},
			[]string{"operation"},
		),
		validationFindings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_findings_total",
				Help:      "Total number of validation findings by category",
			},
			[]string{"category"},
		),
		cyclesBroken: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_broken_total",
				Help:      "Total number of creates split into a bare create and a reference update",
			},
		),
		operationsApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_applied_total",
				Help:      "Total number of applied operations",
			},
			[]string{"operation", "status"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of a single remote operation in seconds",
				Buckets:   buckets,
			},
			[]string{"operation"},
		),
		applyDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "apply_duration_seconds",
				Help:      "Duration of plan apply in seconds",
				Buckets:   buckets,
			},
			[]string{"status"},
		),
		appliesCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "applies_total",
				Help:      "Total number of plan applies",
			},
			[]string{"status"},
		),
	}

	collectors := []prometheus.Collector{
		m.plannedOperations,
		m.validationFindings,
		m.cyclesBroken,
		m.operationsApplied,
		m.operationDuration,
		m.applyDuration,
		m.appliesCompleted,
	}

	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return m, nil
}

// RecordFindings implements engine.MetricsRecorder.
func (m *Metrics) RecordFindings(category string, count int) {
	m.validationFindings.WithLabelValues(category).Add(float64(count))
}

// RecordCyclesBroken implements engine.MetricsRecorder.
func (m *Metrics) RecordCyclesBroken(count int) {
	m.cyclesBroken.Add(float64(count))
}

// SetPlannedOperations implements engine.MetricsRecorder.
func (m *Metrics) SetPlannedOperations(operation string, count int) {
	m.plannedOperations.WithLabelValues(operation).Set(float64(count))
}

// RecordOperationApplied implements engine.MetricsRecorder.
func (m *Metrics) RecordOperationApplied(operation, status string, duration time.Duration) {
	m.operationsApplied.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordApply implements engine.MetricsRecorder.
func (m *Metrics) RecordApply(status string, duration time.Duration) {
	m.appliesCompleted.WithLabelValues(status).Inc()
	m.applyDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// Registry returns the registry holding the confsync metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteToFile writes the metrics in Prometheus text format to path. The
// file is replaced atomically, ready for the node exporter textfile
// collector.
func (m *Metrics) WriteToFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// Flush writes the metrics to the configured file, if any.
func (m *Metrics) Flush() error {
	if m.config.File == "" {
		return nil
	}
	return m.WriteToFile(m.config.File)
}
