// Package metrics holds the prometheus collectors shared by the stores and
// the outbound clients.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Entity cache
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_cache_requests_total",
			Help: "Entity cache lookups by resource and result (hit, miss)",
		},
		[]string{"resource", "result"},
	)

	FetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_fetch_failures_total",
			Help: "Failed entity or list fetches by resource and error kind",
		},
		[]string{"resource", "kind"},
	)

	// Lists
	ListFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_list_fetches_total",
			Help: "Paged list fetches by list, operation and result",
		},
		[]string{"list", "op", "result"},
	)

	// Relationship mutations
	Mutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_mutations_total",
			Help: "Relationship list mutations by list, operation and result",
		},
		[]string{"list", "op", "result"},
	)

	// Outbound clients
	ClientRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_client_requests_total",
			Help: "Outbound API requests by client, operation and status",
		},
		[]string{"client", "op", "status"},
	)

	ClientRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinematch_client_request_duration_seconds",
			Help:    "Duration of outbound API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"client", "op"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cinematch_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// Result labels
const (
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)
