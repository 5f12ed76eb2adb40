package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CleanupRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_desk_cleanup_runs_total",
			Help: "Total cleanup pipeline runs",
		},
		[]string{"status"},
	)

	CleanupCandidates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_desk_cleanup_candidates_total",
			Help: "Deletion candidates identified, by rule reason",
		},
		[]string{"reason"},
	)

	SignalsDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "signal_desk_signals_deleted_total",
			Help: "Signal rows actually deleted by cleanup",
		},
	)

	EnrichmentRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_desk_enrichment_requests_total",
			Help: "Enrichment runs, by outcome",
		},
		[]string{"status"},
	)

	SignalsEnriched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "signal_desk_signals_enriched_total",
			Help: "Signals that received end-client predictions",
		},
	)

	FeedRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signal_desk_feed_request_duration_seconds",
			Help:    "Feed assembly duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	FeedSignalsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signal_desk_feed_signals_returned",
			Help:    "Signals returned per feed request",
			Buckets: []float64{0, 10, 25, 50, 100, 250, 500},
		},
	)

	FirmsDeactivated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "signal_desk_firms_deactivated_total",
			Help: "Competitor firms deactivated by registry reconciliation",
		},
	)

	FirmsSeeded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "signal_desk_firms_seeded_total",
			Help: "Competitor firms seeded by registry reconciliation",
		},
	)
)

func Init() {
	prometheus.MustRegister(CleanupRuns)
	prometheus.MustRegister(CleanupCandidates)
	prometheus.MustRegister(SignalsDeleted)
	prometheus.MustRegister(EnrichmentRequests)
	prometheus.MustRegister(SignalsEnriched)
	prometheus.MustRegister(FeedRequestDuration)
	prometheus.MustRegister(FeedSignalsReturned)
	prometheus.MustRegister(FirmsDeactivated)
	prometheus.MustRegister(FirmsSeeded)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
