// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registryServers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dlcat_registry_servers",
		Help: "Number of media servers currently known to the registry",
	})

	registryEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dlcat_registry_events_total",
		Help: "Discovery events processed by the registry",
	}, []string{"event"}) // found|refreshed|lost|lost_unknown|fetch_failed|enumerate_failed
)

// SetRegistryServers records the current registry size.
func SetRegistryServers(n int) {
	registryServers.Set(float64(n))
}

// IncRegistryEvent counts a discovery event.
func IncRegistryEvent(event string) {
	registryEvents.WithLabelValues(event).Inc()
}
