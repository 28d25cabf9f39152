// Package metrics defines and registers all custom Prometheus metrics for the
// farm operations API. It is the single source of truth for metric names,
// labels, and help strings.
//
// All metrics use promauto and register with the default registry at init
// time; importing the package is enough.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "farmops"

// ── Cache metrics ─────────────────────────────────────────────────────────────

// CacheOpsTotal counts tenant cache lookups.
// Label:
//   - result: "hit" (served from cache) or "miss" (fell through to the repository)
var CacheOpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_ops_total",
		Help:      "Total number of tenant cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ── Rate limit metrics ────────────────────────────────────────────────────────

// RateLimitDeniedTotal counts requests rejected by the per-tenant rate limiter.
// Label:
//   - category: "read", "write", or "delete"
var RateLimitDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_denied_total",
		Help:      "Total number of requests denied by the per-tenant rate limiter.",
	},
	[]string{"category"},
)

// ── Usage metering metrics ────────────────────────────────────────────────────

// UsageEventsProcessedTotal counts usage events drained from the metering
// dispatcher.
// Label:
//   - operation: the metered operation name (e.g. "animals.create")
var UsageEventsProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "usage_events_processed_total",
		Help:      "Total number of usage events recorded by the metering pipeline.",
	},
	[]string{"operation"},
)

// UsageQueueDepth tracks the current number of usage events waiting in each
// dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var UsageQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "usage_queue_depth",
		Help:      "Current number of usage events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Data transfer metrics ─────────────────────────────────────────────────────

// DataTransfersTotal counts bulk export and import operations.
// Labels:
//   - direction: "export" or "import"
//   - outcome: "ok", "rejected", or "replayed"
var DataTransfersTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "data_transfers_total",
		Help:      "Total number of bulk data exports and imports, by direction and outcome.",
	},
	[]string{"direction", "outcome"},
)
