package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"fleetdesk/exporter/pkg/export"
)

// unknownFormat labels outcomes whose format could not be parsed, so user
// input never becomes a label value.
const unknownFormat = "unknown"

// ExportMetrics tracks export calls.
type ExportMetrics struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	bytes    *prometheus.HistogramVec
	records  *prometheus.HistogramVec
}

// NewExportMetrics creates and registers export metrics.
func NewExportMetrics(cfg *Config, registry *prometheus.Registry) *ExportMetrics {
	em := &ExportMetrics{
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "exports_total",
				Help:      "Total number of export calls by format, status and source",
			},
			[]string{"format", "status", "source"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "export_duration_seconds",
				Help:      "Duration of export calls in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"format"},
		),
		bytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "export_bytes",
				Help:      "Size of encoded artifacts in bytes",
				Buckets:   cfg.SizeBuckets,
			},
			[]string{"format"},
		),
		records: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "export_records",
				Help:      "Number of records per export",
				Buckets:   cfg.RecordBuckets,
			},
			[]string{"format"},
		),
	}

	registry.MustRegister(em.total, em.duration, em.bytes, em.records)
	return em
}

// Record records one outcome. Size and record histograms only see
// outcomes that produced an artifact.
func (em *ExportMetrics) Record(o *export.Outcome, source string) {
	format := string(o.Format)
	if format == "" {
		format = unknownFormat
	}

	em.total.WithLabelValues(format, o.Status(), source).Inc()
	em.duration.WithLabelValues(format).Observe(o.Duration.Seconds())
	if o.Err == nil || o.Bytes > 0 {
		em.bytes.WithLabelValues(format).Observe(float64(o.Bytes))
		em.records.WithLabelValues(format).Observe(float64(o.Records))
	}
}
