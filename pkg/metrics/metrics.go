package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shoptrend"

// Metrics holds the service collectors on a private registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	refreshes         *prometheus.CounterVec
	refreshDuration   prometheus.Histogram
	fetchFailures     *prometheus.CounterVec
	extractedKeywords prometheus.Gauge
	snapshotRecords   prometheus.Gauge
	lastSuccess       prometheus.Gauge
}

// New registers all collectors, plus the Go and process collectors, on a fresh
// registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Snapshot refresh attempts by result.",
		}, []string{"result"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Time spent assembling a snapshot.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Failed source page fetches by failure kind.",
		}, []string{"kind"}),
		extractedKeywords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "extracted_keywords",
			Help:      "Keywords extracted from the source page by the last extraction.",
		}),
		snapshotRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_records",
			Help:      "Records in the cached snapshot.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_refresh_success_timestamp_seconds",
			Help:      "Unix time of the last successful refresh.",
		}),
	}

	m.registry.MustRegister(
		m.refreshes,
		m.refreshDuration,
		m.fetchFailures,
		m.extractedKeywords,
		m.snapshotRecords,
		m.lastSuccess,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRefresh records one refresh attempt.
func (m *Metrics) ObserveRefresh(duration time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.refreshes.WithLabelValues(result).Inc()
	m.refreshDuration.Observe(duration.Seconds())
}

// FetchFailed counts a failed page fetch.
func (m *Metrics) FetchFailed(kind string) {
	if m == nil {
		return
	}
	m.fetchFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetExtracted(n int) {
	if m == nil {
		return
	}
	m.extractedKeywords.Set(float64(n))
}

// SetSnapshot records the size and time of a newly cached snapshot.
func (m *Metrics) SetSnapshot(records int, at time.Time) {
	if m == nil {
		return
	}
	m.snapshotRecords.Set(float64(records))
	m.lastSuccess.Set(float64(at.Unix()))
}
