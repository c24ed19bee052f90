// Package metrics exposes Prometheus collectors for the report pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radar_search_requests_total",
			Help: "Total number of search provider requests",
		},
		[]string{"status"},
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "radar_search_duration_seconds",
			Help:    "Duration of search provider requests in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radar_llm_requests_total",
			Help: "Total number of LLM completion requests",
		},
		[]string{"purpose", "status"},
	)

	LLMDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "radar_llm_duration_seconds",
			Help:    "Duration of LLM completion requests in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"purpose"},
	)

	ReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radar_reports_total",
			Help: "Total number of report runs by pipeline version and outcome",
		},
		[]string{"version", "outcome"},
	)

	ReportItems = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "radar_report_items",
			Help:    "Number of items in generated reports",
			Buckets: []float64{0, 5, 10, 20, 30, 40, 50, 100},
		},
		[]string{"version"},
	)

	SynthesisFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "radar_synthesis_fallbacks_total",
			Help: "Total number of sectioned reports built from raw results after a parse failure",
		},
	)
)

// RecordSearch updates search metrics for one provider call.
func RecordSearch(status string, d time.Duration) {
	SearchRequestsTotal.WithLabelValues(status).Inc()
	if status != "cached" {
		SearchDuration.Observe(d.Seconds())
	}
}

// RecordLLM updates LLM metrics for one completion call.
func RecordLLM(purpose, status string, d time.Duration) {
	if purpose == "" {
		purpose = "other"
	}
	LLMRequestsTotal.WithLabelValues(purpose, status).Inc()
	LLMDuration.WithLabelValues(purpose).Observe(d.Seconds())
}

// RecordReport updates report metrics for one pipeline run.
func RecordReport(version, outcome string, items int) {
	ReportsTotal.WithLabelValues(version, outcome).Inc()
	if outcome != "error" {
		ReportItems.WithLabelValues(version).Observe(float64(items))
	}
}

// RecordFallback counts a synthesis fallback.
func RecordFallback() {
	SynthesisFallbacksTotal.Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
