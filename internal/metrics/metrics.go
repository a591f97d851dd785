package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "playhub",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	reservations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "playhub",
			Name:      "reservations_total",
			Help:      "Reservation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	challenges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "playhub",
			Name:      "challenges_total",
			Help:      "Challenge lifecycle transitions.",
		},
		[]string{"status"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "playhub",
			Name:      "notifications_total",
			Help:      "Notification deliveries by result.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, reservations, challenges, notifications)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncReservation increments the reservation counter for an outcome label.
func IncReservation(outcome string) {
	reservations.WithLabelValues(outcome).Inc()
}

// IncChallenge increments the challenge counter for a status label.
func IncChallenge(status string) {
	challenges.WithLabelValues(status).Inc()
}

// IncNotification increments the notification counter for a result label.
func IncNotification(result string) {
	notifications.WithLabelValues(result).Inc()
}
