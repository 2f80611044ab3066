// Package metrics provides Prometheus metrics for the newsroom.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ArticleReadsTotal counts repository reads by the source that served them.
	ArticleReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsroom",
			Name:      "article_reads_total",
			Help:      "Total number of article reads by serving source",
		},
		[]string{"operation", "source"},
	)

	// WriteErrorsTotal counts failed writes.
	WriteErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsroom",
			Name:      "write_errors_total",
			Help:      "Total number of failed writes",
		},
		[]string{"operation"},
	)

	// HighlightsRefreshTotal counts highlight cache refreshes.
	HighlightsRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsroom",
			Name:      "highlights_refresh_total",
			Help:      "Total number of highlight refreshes",
		},
		[]string{"status"},
	)

	LiveSnapshotsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "newsroom",
			Name:      "live_snapshots_total",
			Help:      "Total number of live feed snapshots applied",
		},
	)
)

// RecordRead records which source served a read. An empty source means
// nothing was available.
func RecordRead(operation, source string) {
	if source == "" {
		source = "empty"
	}
	ArticleReadsTotal.WithLabelValues(operation, source).Inc()
}

func RecordWriteError(operation string) {
	WriteErrorsTotal.WithLabelValues(operation).Inc()
}

func RecordRefresh(status string) {
	HighlightsRefreshTotal.WithLabelValues(status).Inc()
}
