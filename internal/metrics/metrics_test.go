package metrics_test

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/workspace-booking/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromhttpExposure(t *testing.T) {
	metrics.IncReservation("create", "ok")
	metrics.IncAction("search_spaces", "ok")
	metrics.ObserveReasoning(150*time.Millisecond, nil)
	metrics.ObserveReasoning(time.Second, errors.New("boom"))
	metrics.ObserveRoundTrips(2)
	metrics.IncDegradedTurn()
	metrics.IncCatalogCache("hit")
	metrics.AddCompleted(3)

	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body := rec.Body.String()
	for _, name := range []string{
		"booking_reservations_total",
		"booking_actions_total",
		"booking_reasoning_calls_total",
		"booking_reasoning_duration_seconds",
		"booking_loop_round_trips",
		"booking_loop_degraded_turns_total",
		"booking_catalog_cache_total",
		"booking_reservations_completed_total",
	} {
		assert.Contains(t, body, name)
	}
}
