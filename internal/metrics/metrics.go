package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	datasetsLoaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "askdata_datasets_loaded_total",
			Help: "Total number of datasets loaded into the registry",
		},
	)

	questionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdata_questions_total",
			Help: "Total number of questions answered, by intent",
		},
		[]string{"intent"},
	)

	cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "askdata_answer_cache_hits_total",
			Help: "Total number of answers served from the question cache",
		},
	)

	insightRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "askdata_insight_generations_total",
			Help: "Total number of cross-dataset insight generations",
		},
	)
)

// RecordDatasetLoaded counts a dataset entering the registry.
func RecordDatasetLoaded() {
	datasetsLoaded.Inc()
}

// RecordQuestion counts an answered question under its intent.
func RecordQuestion(intent string) {
	questionsTotal.WithLabelValues(intent).Inc()
}

// RecordCacheHit counts an answer served from the question cache.
func RecordCacheHit() {
	cacheHits.Inc()
}

// RecordInsightGeneration counts a cross-dataset insight run.
func RecordInsightGeneration() {
	insightRuns.Inc()
}

// Handler returns the Prometheus metrics handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
