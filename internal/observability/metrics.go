package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RegistrationsTotal counts identity registrations by outcome
	// (ok, conflict, invalid, error).
	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "veilrank_registrations_total",
			Help: "Identity registrations by outcome",
		},
		[]string{"outcome"},
	)

	// ScoreUpsertsTotal counts reputation writes by outcome
	// (created, merged, invalid, error).
	ScoreUpsertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "veilrank_score_upserts_total",
			Help: "Reputation record writes by outcome",
		},
		[]string{"outcome"},
	)

	// ActivityAppendsTotal counts ledger appends.
	ActivityAppendsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "veilrank_activity_events_total",
			Help: "Activity ledger appends",
		},
	)

	// RebuildsTotal counts leaderboard rebuilds by result (ok, error).
	RebuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "veilrank_leaderboard_rebuilds_total",
			Help: "Leaderboard snapshot rebuilds by result",
		},
		[]string{"result"},
	)

	// RebuildDuration observes how long a full snapshot rebuild takes.
	RebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "veilrank_leaderboard_rebuild_seconds",
			Help:    "Duration of leaderboard snapshot rebuilds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// LeaderboardSize tracks the entry count of the published snapshot.
	LeaderboardSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "veilrank_leaderboard_entries",
			Help: "Entries in the published leaderboard snapshot",
		},
	)

	// ProofChecksTotal counts gate evaluations by result
	// (valid, invalid, unknown, error).
	ProofChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "veilrank_proof_checks_total",
			Help: "Proof gate validity checks by result",
		},
		[]string{"result"},
	)

	// CacheRequestsTotal counts cache lookups by cache name and result
	// (hit, miss).
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "veilrank_cache_requests_total",
			Help: "Cache lookups by cache and result",
		},
		[]string{"cache", "result"},
	)

	// HTTPRequestDuration observes request latency per route and code.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "veilrank_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// RateLimitedTotal counts requests rejected by the public limiter.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "veilrank_rate_limited_total",
			Help: "Requests rejected by the public rate limiter",
		},
	)
)

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
