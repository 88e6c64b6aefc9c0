// Package metrics exposes Prometheus instrumentation for the
// registration engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_transitions_total",
			Help: "Registration status transitions by from/to status and outcome",
		},
		[]string{"from", "to", "outcome"},
	)

	reservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_reservations_total",
			Help: "Inventory slot reservations by outcome",
		},
		[]string{"outcome"},
	)

	releasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_releases_total",
			Help: "Inventory slot releases by outcome",
		},
		[]string{"outcome"},
	)

	registrationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registrations_created_total",
			Help: "New registrations by initial status",
		},
		[]string{"status"},
	)
)

// TrackTransition records one coordinated status transition attempt.
func TrackTransition(from, to, outcome string) {
	transitionsTotal.WithLabelValues(from, to, outcome).Inc()
}

// TrackReservation records one reserve attempt ("reserved" or "sold_out").
func TrackReservation(outcome string) {
	reservationsTotal.WithLabelValues(outcome).Inc()
}

// TrackRelease records one release attempt ("released" or "drift").
func TrackRelease(outcome string) {
	releasesTotal.WithLabelValues(outcome).Inc()
}

// TrackRegistrationCreated records a new registration's initial status.
func TrackRegistrationCreated(status string) {
	registrationsCreated.WithLabelValues(status).Inc()
}
