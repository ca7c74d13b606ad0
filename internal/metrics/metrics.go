// Package metrics exposes Prometheus instruments for the ledger, the action
// registry and the assistant loop.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ledger
	reservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_reservations_total",
		Help: "Reservation write attempts by operation and outcome",
	}, []string{"operation", "outcome"}) // operation=create|cancel, outcome=ok|conflict|rejected|error

	reservationsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_reservations_completed_total",
		Help: "Reservations moved to completed by the sweep",
	})

	// Actions
	actionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_actions_total",
		Help: "Assistant action executions by action name and outcome",
	}, []string{"action", "outcome"}) // outcome=ok|failed|unauthenticated|invalid

	// Assistant loop
	reasoningCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_reasoning_calls_total",
		Help: "Reasoning service calls by outcome",
	}, []string{"outcome"}) // outcome=ok|error

	reasoningDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "booking_reasoning_duration_seconds",
		Help:    "Latency of a single reasoning service call",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	})

	loopRoundTrips = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "booking_loop_round_trips",
		Help:    "Reasoning steps per chat turn",
		Buckets: []float64{1, 2, 3, 4, 6, 8, 12},
	})

	degradedTurns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_loop_degraded_turns_total",
		Help: "Chat turns cut off by the round-trip ceiling",
	})

	// Catalog cache
	catalogCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_catalog_cache_total",
		Help: "Catalog cache lookups by result",
	}, []string{"result"}) // result=hit|miss|error
)

func IncReservation(operation, outcome string) {
	reservationsTotal.WithLabelValues(operation, outcome).Inc()
}

func AddCompleted(n int) { reservationsCompleted.Add(float64(n)) }

func IncAction(action, outcome string) { actionsTotal.WithLabelValues(action, outcome).Inc() }

// ObserveReasoning records one reasoning call.
func ObserveReasoning(d time.Duration, err error) {
	reasoningDuration.Observe(d.Seconds())
	if err != nil {
		reasoningCalls.WithLabelValues("error").Inc()
		return
	}
	reasoningCalls.WithLabelValues("ok").Inc()
}

func ObserveRoundTrips(n int) { loopRoundTrips.Observe(float64(n)) }

func IncDegradedTurn() { degradedTurns.Inc() }

func IncCatalogCache(result string) { catalogCache.WithLabelValues(result).Inc() }
