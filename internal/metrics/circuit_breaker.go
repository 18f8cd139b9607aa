// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dlcat_circuit_breaker_state",
		Help: "Circuit breaker state by component (0=closed, 1=half-open, 2=open)",
	}, []string{"component"})

	breakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dlcat_circuit_breaker_trips_total",
		Help: "Transitions of a circuit breaker into the open state",
	}, []string{"component", "reason"})
)

// SetCircuitBreakerState records the active state for a breaker.
func SetCircuitBreakerState(component, state string) {
	v := 0.0
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	breakerState.WithLabelValues(component).Set(v)
}

// RecordCircuitBreakerTrip counts a breaker opening.
func RecordCircuitBreakerTrip(component, reason string) {
	breakerTrips.WithLabelValues(component, reason).Inc()
}
