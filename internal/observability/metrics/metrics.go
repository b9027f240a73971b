// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ocsf_standard_creator"

// Metrics holds all Prometheus metrics for a generator run.
type Metrics struct {
	// Run metrics
	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	LastSuccessTime prometheus.Gauge

	// Registry fetch metrics
	FetchTotal   *prometheus.CounterVec
	FetchLatency prometheus.Histogram
	FetchBytes   prometheus.Counter

	// Transform metrics
	AttributesDefaulted *prometheus.CounterVec
	AttributesSkipped   *prometheus.CounterVec
	TransformDuration   prometheus.Histogram

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// Registry is the registry DefaultMetrics is registered with. Batch runs
// export it once on exit rather than serving it.
var Registry = prometheus.NewRegistry()

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics(Registry)

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		// Run metrics
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of generator runs by result",
		}, []string{"result"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a full generator run in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
		LastSuccessTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),

		// Registry fetch metrics
		FetchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_fetch_total",
			Help:      "Total number of schema registry fetches by status class",
		}, []string{"status"}),
		FetchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "registry_fetch_latency_seconds",
			Help:      "Schema registry request latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		FetchBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_fetch_bytes_total",
			Help:      "Total schema bytes received from the registry",
		}),

		// Transform metrics
		AttributesDefaulted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attributes_defaulted_total",
			Help:      "Total number of attributes given a default value",
		}, []string{"type"}),
		AttributesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attributes_skipped_total",
			Help:      "Total number of attributes skipped for an unknown type",
		}, []string{"type"}),
		TransformDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transform_duration_seconds",
			Help:      "Schema to default document transform duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),

		// Kafka publish metrics
		KafkaPublishTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordRun records the outcome of a run.
func (m *Metrics) RecordRun(success bool, durationSeconds float64) {
	m.RunDuration.Observe(durationSeconds)
	if success {
		m.RunsTotal.WithLabelValues("success").Inc()
		m.LastSuccessTime.SetToCurrentTime()
	} else {
		m.RunsTotal.WithLabelValues("failed").Inc()
	}
}

// RecordFetch records a registry request. status is a class such as "2xx"
// or "error" for transport failures.
func (m *Metrics) RecordFetch(status string, bytes int, latencySeconds float64) {
	m.FetchTotal.WithLabelValues(status).Inc()
	m.FetchLatency.Observe(latencySeconds)
	m.FetchBytes.Add(float64(bytes))
}

// RecordDefaulted records an attribute that received a default value.
func (m *Metrics) RecordDefaulted(typeTag string) {
	m.AttributesDefaulted.WithLabelValues(typeTag).Inc()
}

// RecordSkipped records an attribute skipped for an unknown type tag.
func (m *Metrics) RecordSkipped(typeTag string) {
	m.AttributesSkipped.WithLabelValues(typeTag).Inc()
}

// RecordTransform records the duration of a transform.
func (m *Metrics) RecordTransform(durationSeconds float64) {
	m.TransformDuration.Observe(durationSeconds)
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}
