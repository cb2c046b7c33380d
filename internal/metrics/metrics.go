package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "esferas"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "status"},
	)

	bookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings stored, by payment option.",
		},
		[]string{"payment_option"},
	)

	sessionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Sessions created by login.",
		},
	)

	sessionsDestroyed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_destroyed_total",
			Help:      "Sessions removed by logout or expiry.",
		},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications handed to the sink, by result.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, sessionsCreated, sessionsDestroyed, notifications)
	})
}

// IncHTTP increments the request counter for an endpoint label and status.
func IncHTTP(endpoint string, status int) {
	httpRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

// IncHTTPAborted counts a request whose connection was dropped before a
// response was written.
func IncHTTPAborted(endpoint string) {
	httpRequests.WithLabelValues(endpoint, "aborted").Inc()
}

func IncBooking(paymentOption string) {
	bookingsCreated.WithLabelValues(paymentOption).Inc()
}

func IncSessionCreated() {
	sessionsCreated.Inc()
}

func IncSessionDestroyed() {
	sessionsDestroyed.Inc()
}

// IncNotification records a sink write; result is "ok" or "error".
func IncNotification(result string) {
	notifications.WithLabelValues(result).Inc()
}
