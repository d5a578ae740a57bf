package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"fleetdesk/exporter/pkg/export"
	"fleetdesk/exporter/pkg/history"
)

// Config contains configuration for the Collector.
type Config struct {
	// Enabled turns recording on. A disabled collector still serves an
	// empty registry.
	Enabled bool

	// Namespace prefixes every metric name.
	// Default: "exporter"
	Namespace string

	// DurationBuckets are the histogram buckets for durations in seconds.
	DurationBuckets []float64

	// SizeBuckets are the histogram buckets for artifact sizes in bytes.
	SizeBuckets []float64

	// RecordBuckets are the histogram buckets for record counts.
	RecordBuckets []float64
}

// Collector owns the exporter's Prometheus registry.
type Collector struct {
	config   *Config
	registry *prometheus.Registry

	exports   *ExportMetrics
	http      *HTTPMetrics
	inbox     *prometheus.CounterVec
	retention *prometheus.CounterVec
}

// NewCollector creates a collector. A nil registry gets a fresh one.
func NewCollector(cfg *Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := *cfg
	if c.Namespace == "" {
		c.Namespace = "exporter"
	}
	if len(c.DurationBuckets) == 0 {
		// Exports run from a few milliseconds (JSON) to seconds (large PDFs).
		c.DurationBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	}
	if len(c.SizeBuckets) == 0 {
		c.SizeBuckets = prometheus.ExponentialBuckets(256, 4, 10) // 256B to 64MB
	}
	if len(c.RecordBuckets) == 0 {
		c.RecordBuckets = []float64{0, 1, 10, 100, 1000, 10000, 100000}
	}

	collector := &Collector{
		config:   &c,
		registry: registry,
		exports:  NewExportMetrics(&c, registry),
		http:     NewHTTPMetrics(&c, registry),
		inbox: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: c.Namespace,
			Name:      "inbox_files_total",
			Help:      "Drop-folder files handled, by result",
		}, []string{"result"}),
		retention: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: c.Namespace,
			Name:      "retention_pruned_total",
			Help:      "Items removed by retention, by kind (job, file)",
		}, []string{"kind"}),
	}
	registry.MustRegister(collector.inbox, collector.retention)

	return collector
}

// ObserveExport implements export.Observer.
func (c *Collector) ObserveExport(ctx context.Context, o *export.Outcome) {
	if !c.config.Enabled {
		return
	}
	c.exports.Record(o, history.SourceFrom(ctx))
}

// RecordHTTPRequest records a finished API request.
func (c *Collector) RecordHTTPRequest(route, method string, code int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.http.RecordRequest(route, method, code, duration)
}

// RecordRateLimited records a request rejected by the rate limiter.
func (c *Collector) RecordRateLimited(route string) {
	if !c.config.Enabled {
		return
	}
	c.http.RecordRateLimited(route)
}

// RecordInboxFile records a drop-folder file; result is "processed" or
// "failed".
func (c *Collector) RecordInboxFile(result string) {
	if !c.config.Enabled {
		return
	}
	c.inbox.WithLabelValues(result).Inc()
}

// RecordPrune records a retention run.
func (c *Collector) RecordPrune(jobs, files int64) {
	if !c.config.Enabled {
		return
	}
	c.retention.WithLabelValues("job").Add(float64(jobs))
	c.retention.WithLabelValues("file").Add(float64(files))
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
