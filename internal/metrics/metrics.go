package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turnero",
			Name:      "reservations_total",
			Help:      "Count of reservation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	cancellations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turnero",
			Name:      "cancellations_total",
			Help:      "Count of appointment cancellations by actor.",
		},
		[]string{"actor"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turnero",
			Name:      "transitions_total",
			Help:      "Count of lifecycle transitions by target state.",
		},
		[]string{"state"},
	)

	availabilityDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "turnero",
			Name:      "availability_compute_seconds",
			Help:      "Time spent computing availability per request.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservations, cancellations, transitions, availabilityDuration)
	})
}

func IncReservation(outcome string) {
	reservations.WithLabelValues(outcome).Inc()
}

func IncCancellation(actor string) {
	cancellations.WithLabelValues(actor).Inc()
}

func IncTransition(state string) {
	transitions.WithLabelValues(state).Inc()
}

func ObserveAvailability(d time.Duration) {
	availabilityDuration.Observe(d.Seconds())
}
