package memory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ItemsTotal tracks the current item count per level.
	ItemsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "contextmem",
			Subsystem: "memory",
			Name:      "items_total",
			Help:      "Current number of context items per level",
		},
		[]string{"level"},
	)

	// TokensTotal tracks the stored token total per level.
	TokensTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "contextmem",
			Subsystem: "memory",
			Name:      "tokens_total",
			Help:      "Sum of token counts of stored items per level",
		},
		[]string{"level"},
	)

	// EvictionsTotal counts evictions by level and reason.
	// Labels: level, reason (capacity, ttl).
	EvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contextmem",
			Subsystem: "memory",
			Name:      "evictions_total",
			Help:      "Total items evicted per level by reason",
		},
		[]string{"level", "reason"},
	)

	// OperationsTotal counts store operations by type and result.
	// Labels: operation (put, get, delete, clear, search), status (ok, error).
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contextmem",
			Subsystem: "memory",
			Name:      "operations_total",
			Help:      "Total level store operations by type and status",
		},
		[]string{"operation", "status"},
	)

	// SearchDuration tracks cross-level search latency.
	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "contextmem",
			Subsystem: "memory",
			Name:      "search_duration_seconds",
			Help:      "Duration of tier fan-out searches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

const (
	evictReasonCapacity = "capacity"
	evictReasonTTL      = "ttl"
)
