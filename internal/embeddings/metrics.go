package embeddings

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/contextmem/internal/embeddings"

// Cache counters are prometheus-native so they show up next to the store
// metrics on /metrics without an OTEL exporter configured.
var (
	// CacheHitsTotal counts embedding cache hits.
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "contextmem",
		Subsystem: "embeddings",
		Name:      "cache_hits_total",
		Help:      "Total embedding cache hits",
	})

	// CacheMissesTotal counts embedding cache misses.
	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "contextmem",
		Subsystem: "embeddings",
		Name:      "cache_misses_total",
		Help:      "Total embedding cache misses",
	})
)

// Metrics holds embedding-related OTEL instruments.
type Metrics struct {
	meter    metric.Meter
	logger   *zap.Logger
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

// NewMetrics creates a Metrics instance for embeddings.
func NewMetrics(logger *zap.Logger) *Metrics {
	m := &Metrics{
		meter:  otel.Meter(instrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.duration, err = m.meter.Float64Histogram(
		"contextmem.embedding.request_duration_seconds",
		metric.WithDescription("Duration of embedding backend requests in seconds, labeled by model"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		m.logger.Warn("failed to create duration histogram", zap.Error(err))
	}

	m.errors, err = m.meter.Int64Counter(
		"contextmem.embedding.errors_total",
		metric.WithDescription("Total embedding request errors by model"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.logger.Warn("failed to create errors counter", zap.Error(err))
	}
}

// RecordEmbed records one embedding request.
func (m *Metrics) RecordEmbed(ctx context.Context, model string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{attribute.String("model", model)}

	if m.duration != nil {
		m.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
	if err != nil && m.errors != nil {
		m.errors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
