// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	catalogOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dlcat_catalog_operations_total",
		Help: "Catalog operations by name and result",
	}, []string{"op", "result"}) // result: ok|error

	catalogSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dlcat_catalog_skipped_total",
		Help: "Items or services skipped during batch operations",
	}, []string{"op", "reason"})

	pageFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dlcat_page_fetches_total",
		Help: "Pages fetched by the pagination driver",
	}, []string{"op"})
)

// RecordCatalogOp counts a finished catalog operation.
func RecordCatalogOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	catalogOperations.WithLabelValues(op, result).Inc()
}

// IncCatalogSkipped counts an item or service dropped from a batch result.
func IncCatalogSkipped(op, reason string) {
	catalogSkipped.WithLabelValues(op, reason).Inc()
}

// IncPageFetch counts one page request issued by the pagination driver.
func IncPageFetch(op string) {
	if op == "" {
		op = "unknown"
	}
	pageFetches.WithLabelValues(op).Inc()
}
