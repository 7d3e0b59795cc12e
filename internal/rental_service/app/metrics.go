package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	purchasesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rental",
			Name:      "purchases_total",
			Help:      "Total number purchase attempts.",
		},
		[]string{"status"}, // success, rejected, upstream_error
	)
	releasesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rental",
			Name:      "releases_total",
			Help:      "Total number release attempts.",
		},
		[]string{"status"}, // success, not_found, upstream_error
	)
	candidateQueriesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rental",
			Name:      "candidate_queries_total",
			Help:      "Total candidate list queries against the upstream provider.",
		},
		[]string{"status"}, // success, exhausted, upstream_error
	)
	purchaseDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rental",
			Name:      "purchase_duration_seconds",
			Help:      "Duration of the full purchase path including the upstream round-trip.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	sweepRunsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rental",
			Name:      "sweep_runs_total",
			Help:      "Total expiry sweep passes.",
		},
	)
	sweepDeactivationsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rental",
			Name:      "sweep_deactivations_total",
			Help:      "Total subscriptions deactivated by the expiry sweeper.",
		},
	)
	sweepNotifyFailuresCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rental",
			Name:      "sweep_notify_failures_total",
			Help:      "Expiry notifications that could not be delivered.",
		},
	)
)
