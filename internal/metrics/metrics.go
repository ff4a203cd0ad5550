// Package metrics exposes Prometheus collectors for update runs, clustering
// outcomes, PASTA fetches and the HTTP surface.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	Runs           *prometheus.CounterVec
	RunDuration    *prometheus.HistogramVec
	Merges         *prometheus.CounterVec
	Clusters       prometheus.Gauge
	Anomalies      prometheus.Gauge
	CanonicalNames prometheus.Gauge
	LastSuccess    prometheus.Gauge
	Fetches        *prometheus.CounterVec
	FetchDuration  prometheus.Histogram
	HTTPRequests   *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "creators_runs_total",
			Help: "Update and recompute runs by kind and outcome",
		}, []string{"kind", "outcome"}),
		RunDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "creators_run_duration_seconds",
			Help:    "Duration of update and recompute runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"kind"}),
		Merges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "creators_cluster_merges_total",
			Help: "Cluster merges by pass",
		}, []string{"pass"}),
		Clusters: f.NewGauge(prometheus.GaugeOpts{
			Name: "creators_clusters",
			Help: "Person clusters after the last run",
		}),
		Anomalies: f.NewGauge(prometheus.GaugeOpts{
			Name: "creators_cluster_anomalies",
			Help: "Clusters holding conflicting identifiers after the last run",
		}),
		CanonicalNames: f.NewGauge(prometheus.GaugeOpts{
			Name: "creators_canonical_names",
			Help: "Canonical names in the current table",
		}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "creators_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
		Fetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "creators_pasta_fetches_total",
			Help: "PASTA metadata fetches by outcome",
		}, []string{"outcome"}),
		FetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "creators_pasta_fetch_duration_seconds",
			Help:    "Duration of single PASTA metadata fetches, retries included",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "creators_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
	}
}

// ObserveRun records a finished run. Call with time.Now() at the start.
func (m *Metrics) ObserveRun(kind string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	} else {
		m.LastSuccess.SetToCurrentTime()
	}
	m.Runs.WithLabelValues(kind, outcome).Inc()
	m.RunDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// AddMerges counts merges performed by one pass.
func (m *Metrics) AddMerges(pass string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Merges.WithLabelValues(pass).Add(float64(n))
}

// SetClusterState records the outcome of the last clustering run.
func (m *Metrics) SetClusterState(clusters, anomalies, canonicalNames int) {
	if m == nil {
		return
	}
	m.Clusters.Set(float64(clusters))
	m.Anomalies.Set(float64(anomalies))
	m.CanonicalNames.Set(float64(canonicalNames))
}

// ObserveFetch records one metadata fetch.
func (m *Metrics) ObserveFetch(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Fetches.WithLabelValues(outcome).Inc()
	m.FetchDuration.Observe(d.Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}
