// Package metrics exposes Prometheus counters for the short-code
// allocation pipeline. Maintenance-path failures are deliberately quiet in
// logs; these counters are their loud channel.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PoolDrawHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minilink_pool_draw_hits_total",
		Help: "Draws that returned a pre-generated code.",
	})

	PoolDrawMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minilink_pool_draw_misses_total",
		Help: "Draws that found the pool empty or lost the delete race.",
	})

	PoolCodesRefilled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minilink_pool_codes_refilled_total",
		Help: "Codes written into the pool by refills.",
	})

	FallbackAllocations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minilink_fallback_allocations_total",
		Help: "Allocations that fell back to the oracle-checked slow path.",
	})

	MaintenanceResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minilink_pool_maintenance_results_total",
		Help: "Watermark maintenance outcomes by status.",
	}, []string{"status"})

	ReplenishJobs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minilink_replenish_jobs_total",
		Help: "Replenishment jobs processed by the worker.",
	})
)
