// Package metrics
package metrics

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	DBQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query_name"},
	)
	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grademap_fetch_duration_seconds",
			Help:    "Duration of source page fetches, labeled by URL variant and outcome.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
		[]string{"variant", "outcome"},
	)
	BuildCountries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grademap_build_countries_total",
			Help: "Countries processed by the build job, labeled by outcome.",
		},
		[]string{"outcome"},
	)
	BuildRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "grademap_build_records",
			Help: "Number of records in the most recent build.",
		},
	)
	QueryRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grademap_query_requests_total",
			Help: "Query service calls, labeled by operation and result.",
		},
		[]string{"operation", "result"},
	)
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grademap_cache_lookups_total",
			Help: "Query cache lookups, labeled by result (hit, miss, error).",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(DBQueryDuration)
	prometheus.MustRegister(FetchDuration)
	prometheus.MustRegister(BuildCountries)
	prometheus.MustRegister(BuildRecords)
	prometheus.MustRegister(QueryRequests)
	prometheus.MustRegister(CacheLookups)
}

// PushBuildMetrics sends the build job's collectors to a Pushgateway. The job
// is short-lived, so nothing would scrape it otherwise.
func PushBuildMetrics(url, runID string) {
	if url == "" {
		return
	}
	err := push.New(url, "grademap_build").
		Grouping("run_id", runID).
		Collector(FetchDuration).
		Collector(BuildCountries).
		Collector(BuildRecords).
		Collector(DBQueryDuration).
		Push()
	if err != nil {
		slog.Error("Failed to push build metrics", "url", url, "error", err)
		return
	}
	slog.Info("Pushed build metrics", "url", url)
}
