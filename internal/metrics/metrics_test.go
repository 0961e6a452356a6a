package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("/bookings", 201)
		IncGRPC("/shareit.v1.BookingQuery/GetBooking", "OK")
		ObserveEnrichment("one", time.Now())
	})
}

func counterValue(t *testing.T, operation, outcome string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, bookingOps.WithLabelValues(operation, outcome).Write(&m))
	return m.GetCounter().GetValue()
}

func TestObserveBooking(t *testing.T) {
	before := counterValue(t, "confirm", "conflict")
	ObserveBooking("confirm", "conflict")
	ObserveBooking("confirm", "conflict")
	assert.Equal(t, before+2, counterValue(t, "confirm", "conflict"))
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(200))
	assert.Equal(t, "3xx", statusClass(304))
	assert.Equal(t, "4xx", statusClass(404))
	assert.Equal(t, "5xx", statusClass(503))
}
