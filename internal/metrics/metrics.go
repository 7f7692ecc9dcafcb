package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var stageDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "pipeline_stage_duration_seconds",
		Help:    "Duration of document pipeline stages.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	},
	[]string{"stage"},
)

var prepareOutcomes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "document_prepare_total",
		Help: "Prepare calls by outcome status.",
	},
	[]string{"status"},
)

// ObserveStage records one pipeline stage execution, e.g. "extract",
// "ocr_page", "embed", "vector_search", "llm_generation".
func ObserveStage(stage string, d time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// CountPrepare records a prepare outcome: prepared, cached or fallback.
func CountPrepare(status string) {
	prepareOutcomes.WithLabelValues(status).Inc()
}
