// Package metrics exposes Prometheus instrumentation for the matching engine:
// invite outcomes, match creation, candidate pool sizes, exclusion cache
// effectiveness and chat throughput.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// InvitesTotal counts invite operations by outcome: "pending", "match",
	// "duplicate", "quota_exceeded", "accepted" or "rejected".
	InvitesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "promdate_invites_total",
		Help: "Invite operations by outcome",
	}, []string{"outcome"})

	// MatchesTotal counts matches created. Conflicts resolved as
	// "already matched" are not counted.
	MatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "promdate_matches_total",
		Help: "Matches created",
	})

	CandidatePoolSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "promdate_candidate_pool_size",
		Help:    "Eligible candidates per discovery request",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
	})

	// ExclusionCacheLookups counts exclusion set lookups by result: "hit" or "miss".
	ExclusionCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "promdate_exclusion_cache_lookups_total",
		Help: "Exclusion set cache lookups",
	}, []string{"result"})

	// MessagesTotal counts chat messages by type: "sent" or "filtered".
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "promdate_messages_total",
		Help: "Chat messages processed",
	}, []string{"type"})

	// OperationLatency records core operation latency in seconds.
	OperationLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "promdate_operation_latency_seconds",
		Help:    "Core operation latency in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"operation"})

	NotificationsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "promdate_notifications_failed_total",
		Help: "Realtime notifications that could not be published",
	}, []string{"event"})
)

func init() {
	prometheus.MustRegister(
		InvitesTotal,
		MatchesTotal,
		CandidatePoolSize,
		ExclusionCacheLookups,
		MessagesTotal,
		OperationLatency,
		NotificationsFailed,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
