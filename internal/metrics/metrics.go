package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExtractionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "igvalue_extraction_outcomes_total",
			Help: "Structured extraction results by schema and winning strategy",
		},
		[]string{"schema", "strategy"},
	)

	ProfileSources = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "igvalue_profile_sources_total",
			Help: "Where the resolved profile counts came from",
		},
		[]string{"source"},
	)

	ReviewSources = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "igvalue_review_sources_total",
			Help: "Which cascade stage produced the short review",
		},
		[]string{"source"},
	)

	UpstreamFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "igvalue_upstream_failures_total",
			Help: "Vision model calls that failed after retries",
		},
		[]string{"provider"},
	)

	AnalysesFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "igvalue_analyses_finished_total",
			Help: "Analysis jobs by final status and error code",
		},
		[]string{"status", "error_code"},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "igvalue_analysis_duration_seconds",
			Help:    "Wall time of an analysis job, model call included",
			Buckets: []float64{1, 5, 10, 20, 40, 60, 90, 180},
		},
		[]string{"provider"},
	)

	AssetValues = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "igvalue_asset_value_ntd",
			Help:    "Distribution of computed account asset values",
			Buckets: prometheus.ExponentialBuckets(3000, 3, 10),
		},
	)
)
