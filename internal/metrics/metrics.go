// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	dlcheck "github.com/reoring/dlcheck"
)

const namespace = "dlcheck"

// Metrics holds the Prometheus collectors for validation traffic.
type Metrics struct {
	// Validation metrics
	ValidationsTotal   *prometheus.CounterVec
	ViolationsTotal    *prometheus.CounterVec
	ValidationDuration *prometheus.HistogramVec

	// GA4 limit metrics
	LimitIssuesTotal *prometheus.CounterVec

	// Schema registry metrics
	SchemasLoaded prometheus.Gauge
	SchemaReloads *prometheus.CounterVec

	// Kafka consume metrics
	KafkaMessagesTotal *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ValidationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Total number of event records validated",
		}, []string{"source", "event", "result"}),
		ViolationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Total number of schema violations found",
		}, []string{"event", "code"}),
		ValidationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_duration_seconds",
			Help:      "Time spent validating one record",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}, []string{"source"}),

		LimitIssuesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "limit_issues_total",
			Help:      "Total number of GA4 collection limit issues found",
		}, []string{"code"}),

		SchemasLoaded: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "schemas_loaded",
			Help:      "Number of event schemas in the active registry",
		}),
		SchemaReloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_reloads_total",
			Help:      "Total number of schema file reload attempts",
		}, []string{"result"}),

		KafkaMessagesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_messages_total",
			Help:      "Total number of Kafka messages consumed",
		}, []string{"topic", "result"}),
	}
}

// RecordReport counts the outcome of one validation and its violations by code.
func (m *Metrics) RecordReport(source string, rep dlcheck.Report) {
	result := "valid"
	if !rep.Valid() {
		result = "invalid"
	}
	m.ValidationsTotal.WithLabelValues(source, rep.Event, result).Inc()
	for _, v := range rep.Violations {
		m.ViolationsTotal.WithLabelValues(rep.Event, v.Code).Inc()
	}
}

// ObserveValidation records the time spent validating one record.
func (m *Metrics) ObserveValidation(source string, d time.Duration) {
	m.ValidationDuration.WithLabelValues(source).Observe(d.Seconds())
}

// RecordLimitIssues counts GA4 limit issues by code.
func (m *Metrics) RecordLimitIssues(iss dlcheck.Issues) {
	for _, it := range iss {
		m.LimitIssuesTotal.WithLabelValues(it.Code).Inc()
	}
}

// RecordSchemaLoad records a registry (re)load; reg is nil when loading failed.
func (m *Metrics) RecordSchemaLoad(reg *dlcheck.Registry, err error) {
	if err != nil {
		m.SchemaReloads.WithLabelValues("error").Inc()
		return
	}
	m.SchemaReloads.WithLabelValues("success").Inc()
	m.SchemasLoaded.Set(float64(reg.Len()))
}

// RecordKafkaMessage records one consumed message. result is valid, invalid or error.
func (m *Metrics) RecordKafkaMessage(topic, result string) {
	m.KafkaMessagesTotal.WithLabelValues(topic, result).Inc()
}
