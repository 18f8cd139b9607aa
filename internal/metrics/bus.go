// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	busCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dlcat_bus_call_duration_seconds",
		Help:    "Latency of asynchronous bus calls from dispatch to reply or error",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "result"})

	busCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dlcat_bus_calls_total",
		Help: "Total number of asynchronous bus calls by method and result",
	}, []string{"method", "result"})
)

// ObserveBusCall records the outcome and latency of one bus call.
// result is one of: ok|error|rejected.
func ObserveBusCall(method, result string, elapsed time.Duration) {
	if method == "" {
		method = "unknown"
	}
	busCallsTotal.WithLabelValues(method, result).Inc()
	if result != "rejected" {
		busCallDuration.WithLabelValues(method, result).Observe(elapsed.Seconds())
	}
}
