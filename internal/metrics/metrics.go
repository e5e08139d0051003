// Package metrics exposes Prometheus instrumentation for the matcher, the
// catalog and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Similarity search
	SimilarityRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auramatch_similarity_requests_total",
			Help: "Total number of similarity searches by outcome",
		},
		[]string{"outcome"}, // "ok", "empty", "not_found", "no_peaks", "error"
	)

	SimilarityDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auramatch_similarity_duration_seconds",
			Help:    "Duration of similarity searches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CandidatesScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auramatch_candidates_scanned_total",
			Help: "Total number of candidate tracks scanned by the matcher",
		},
	)

	MatchesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auramatch_matches_returned",
			Help:    "Number of matches returned per similarity search",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)

	// Catalog
	TracksIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auramatch_tracks_ingested_total",
			Help: "Total number of tracks registered in the catalog by source",
		},
		[]string{"source"}, // "audio", "import"
	)

	IngestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auramatch_ingest_errors_total",
			Help: "Total number of failed track ingestions by source",
		},
		[]string{"source"},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auramatch_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auramatch_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordSimilarity records one similarity search.
func RecordSimilarity(outcome string, duration time.Duration, candidates, matches int) {
	SimilarityRequests.WithLabelValues(outcome).Inc()
	SimilarityDuration.Observe(duration.Seconds())
	CandidatesScanned.Add(float64(candidates))
	MatchesReturned.Observe(float64(matches))
}

// RecordIngest records a catalog registration attempt.
func RecordIngest(source string, err error) {
	if err != nil {
		IngestErrors.WithLabelValues(source).Inc()
		return
	}
	TracksIngested.WithLabelValues(source).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
