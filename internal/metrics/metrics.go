// Package metrics provides Prometheus metrics for the news job.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ArticlesFetched counts entries normalized from feeds.
	ArticlesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdigest",
			Name:      "articles_fetched_total",
			Help:      "Total number of feed entries normalized into articles",
		},
		[]string{"source"},
	)

	// ArticlesSaved counts newly inserted articles.
	ArticlesSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdigest",
			Name:      "articles_saved_total",
			Help:      "Total number of articles inserted for the first time",
		},
		[]string{"source"},
	)

	// ArticlesSkipped counts collected entries that were not stored.
	ArticlesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdigest",
			Name:      "articles_skipped_total",
			Help:      "Total number of collected entries dropped before storage, by reason",
		},
		[]string{"source", "reason"},
	)

	// ClassificationDeferred counts articles left uncategorized because a stage was unavailable.
	ClassificationDeferred = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "newsdigest",
			Name:      "classification_deferred_total",
			Help:      "Total number of articles left pending for the next run after a classification outage",
		},
	)

	FeedFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdigest",
			Name:      "feed_failures_total",
			Help:      "Total number of feeds that could not be fetched or parsed",
		},
		[]string{"source"},
	)

	// StageFallbacks counts classification stages that degraded to their safe default.
	StageFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdigest",
			Name:      "stage_fallbacks_total",
			Help:      "Total number of classification stage calls that fell back to a safe default",
		},
		[]string{"stage"},
	)

	// CountyCorrections counts articles sent through the targeted county retry.
	CountyCorrections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdigest",
			Name:      "county_corrections_total",
			Help:      "Articles flagged for county retry, by outcome",
		},
		[]string{"outcome"},
	)

	DigestsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdigest",
			Name:      "digests_total",
			Help:      "Total number of digests processed, by status",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "newsdigest",
			Name:      "run_duration_seconds",
			Help:      "Duration of pipeline phases in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"phase"},
	)
)

// RecordFallback records a stage that returned its safe default.
func RecordFallback(stage string) {
	StageFallbacks.WithLabelValues(stage).Inc()
}

func RecordDigest(status string) {
	DigestsSent.WithLabelValues(status).Inc()
}
