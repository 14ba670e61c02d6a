package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookery",
			Name:      "http_requests_total",
			Help:      "Count of API requests by handler.",
		},
		[]string{"handler"},
	)

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookery",
			Name:      "booking_created_total",
			Help:      "Count of bookings created by status.",
		},
		[]string{"status"},
	)

	bookingCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bookery",
			Name:      "booking_cancelled_total",
			Help:      "Count of bookings cancelled.",
		},
	)

	recurrenceNormalized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookery",
			Name:      "recurrence_normalized_total",
			Help:      "Count of recurrence rules normalized by submitted frequency.",
		},
		[]string{"frequency"},
	)

	statusCalculated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookery",
			Name:      "status_calculated_total",
			Help:      "Count of business status derivations by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingCreated, bookingCancelled,
			recurrenceNormalized, statusCalculated)
	})
}

func IncHTTP(handler string) {
	httpRequests.WithLabelValues(handler).Inc()
}

func IncBookingCreated(status string) {
	bookingCreated.WithLabelValues(status).Inc()
}

func IncBookingCancelled() {
	bookingCancelled.Inc()
}

func IncRecurrenceNormalized(frequency string) {
	recurrenceNormalized.WithLabelValues(frequency).Inc()
}

func IncStatusCalculated(outcome string) {
	statusCalculated.WithLabelValues(outcome).Inc()
}
