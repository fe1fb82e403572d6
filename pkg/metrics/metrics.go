package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the booking engine counters. Collectors are created
// unregistered so tests can build throwaway instances; main registers them
// once via Register.
type Metrics struct {
	BookingsCreated      prometheus.Counter
	BookingsCancelled    prometheus.Counter
	BookingsRejected     *prometheus.CounterVec
	SlotQueries          prometheus.Counter
	NotificationFailures *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	return &Metrics{
		BookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Total number of appointments booked",
		}),
		BookingsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_cancelled_total",
			Help:      "Total number of appointments cancelled",
		}),
		BookingsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_rejected_total",
			Help:      "Booking attempts rejected, by reason",
		}, []string{"reason"}),
		SlotQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_queries_total",
			Help:      "Total number of free-slot queries",
		}),
		NotificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Notification dispatch failures, by channel",
		}, []string{"channel"}),
	}
}

func (m *Metrics) Register(r prometheus.Registerer) {
	r.MustRegister(
		m.BookingsCreated,
		m.BookingsCancelled,
		m.BookingsRejected,
		m.SlotQueries,
		m.NotificationFailures,
	)
}
