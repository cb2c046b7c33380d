package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("bookings", 200)
		IncSessionCreated()
		IncSessionDestroyed()
	})
}

func TestIncBooking(t *testing.T) {
	before := counterValue(t, bookingsCreated.WithLabelValues("local"))
	IncBooking("local")
	assert.Equal(t, before+1, counterValue(t, bookingsCreated.WithLabelValues("local")))
}

func TestIncNotification(t *testing.T) {
	before := counterValue(t, notifications.WithLabelValues("error"))
	IncNotification("error")
	IncNotification("error")
	assert.Equal(t, before+2, counterValue(t, notifications.WithLabelValues("error")))
}

func TestIncHTTPAborted(t *testing.T) {
	before := counterValue(t, httpRequests.WithLabelValues("bookings", "aborted"))
	ok := counterValue(t, httpRequests.WithLabelValues("bookings", "200"))
	IncHTTPAborted("bookings")
	assert.Equal(t, before+1, counterValue(t, httpRequests.WithLabelValues("bookings", "aborted")))
	assert.Equal(t, ok, counterValue(t, httpRequests.WithLabelValues("bookings", "200")))
}
