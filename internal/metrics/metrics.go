// Package metrics defines the Prometheus collectors shared by the sync
// engine, scheduler, and connectivity monitor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OutboxOpsTotal counts replayed outbox operations by outcome
	// ("done" or "failed").
	OutboxOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipshape_outbox_ops_total",
		Help: "Outbox operations replayed against the backend, by outcome.",
	}, []string{"outcome"})

	// SyncPassesTotal counts completed sync passes.
	SyncPassesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shipshape_sync_passes_total",
		Help: "Completed outbox sync passes.",
	})

	// TasksGeneratedTotal counts tasks materialized by the scheduler.
	TasksGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shipshape_tasks_generated_total",
		Help: "Task instances generated from chore templates.",
	})

	// ProbesTotal counts backend reachability probes by result
	// ("online" or "offline").
	ProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipshape_connectivity_probes_total",
		Help: "Backend reachability probes, by result.",
	}, []string{"result"})
)
