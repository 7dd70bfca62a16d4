package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "seat_booking"

var (
	once sync.Once

	bookingRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_requests_total",
			Help:      "Count of booking invocations by result.",
		},
		[]string{"result"},
	)

	seatsBooked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seats_booked_total",
			Help:      "Count of seat rows marked taken by committed bookings.",
		},
	)

	webhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Count of webhook notification attempts by result.",
		},
		[]string{"result"},
	)

	feedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_events_total",
			Help:      "Count of seat change events received from the store by type.",
		},
		[]string{"type"},
	)

	feedSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_subscribers",
			Help:      "Number of connected change feed subscribers.",
		},
	)
)

// Register registers metrics with the default registry (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingRequests, seatsBooked, webhookDeliveries, feedEvents, feedSubscribers)
	})
}

func IncBookingRequest(result string) {
	bookingRequests.WithLabelValues(result).Inc()
}

func AddSeatsBooked(n int) {
	seatsBooked.Add(float64(n))
}

func IncWebhookDelivery(result string) {
	webhookDeliveries.WithLabelValues(result).Inc()
}

func IncFeedEvent(eventType string) {
	feedEvents.WithLabelValues(eventType).Inc()
}

func SetFeedSubscribers(n int) {
	feedSubscribers.Set(float64(n))
}
