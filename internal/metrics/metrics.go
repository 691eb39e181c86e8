package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "concentration_map_refresh_total",
		Help: "Completed recomputations by trigger",
	}, []string{"trigger"})
	RefreshSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "concentration_map_refresh_skipped_total",
		Help: "Recomputations skipped by reason",
	}, []string{"reason"})
	RefreshDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "concentration_map_refresh_duration_ms",
		Help:    "Normalize, cluster and redraw duration in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	FetchTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "concentration_map_fetch_total",
		Help: "Snapshot fetches attempted",
	})
	FetchErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "concentration_map_fetch_errors_total",
		Help: "Snapshot fetches that failed",
	})
	DroppedRecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "concentration_map_dropped_records_total",
		Help: "Raw records discarded by the normalizer by reason",
	}, []string{"reason"})
	MarkersDrawnTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "concentration_map_markers_drawn_total",
		Help: "Markers created on the surface by kind",
	}, []string{"mode"})
	MarkersRemovedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "concentration_map_markers_removed_total",
		Help: "Markers removed from the surface",
	})
	MarkersCurrent = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "concentration_map_markers",
		Help: "Markers currently drawn",
	})
	MessagesStoredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "concentration_map_messages_stored_total",
		Help: "Message logs accepted by the store",
	})
)

func init() {
	prometheus.MustRegister(RefreshTotal)
	prometheus.MustRegister(RefreshSkippedTotal)
	prometheus.MustRegister(RefreshDurationMs)
	prometheus.MustRegister(FetchTotal)
	prometheus.MustRegister(FetchErrorsTotal)
	prometheus.MustRegister(DroppedRecordsTotal)
	prometheus.MustRegister(MarkersDrawnTotal)
	prometheus.MustRegister(MarkersRemovedTotal)
	prometheus.MustRegister(MarkersCurrent)
	prometheus.MustRegister(MessagesStoredTotal)
}

// Handler exposes the registered metrics for scraping at /metrics
func Handler() http.Handler { return promhttp.Handler() }
