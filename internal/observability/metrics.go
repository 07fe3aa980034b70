package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// road-condition data service.
type Metrics struct {
	// Ingest pipeline metrics.
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Record normalization, labeled by record kind.
	RecordsNormalized *prometheus.CounterVec // labels: kind={congestion,damage}

	// Viewport fetcher metrics.
	FetchesIssued     prometheus.Counter
	FetchesSuperseded prometheus.Counter
	FetchesFailed     prometheus.Counter

	// Hex boundary resolution metrics.
	HexCache     *prometheus.CounterVec // labels: result={hit,miss}
	HexFallbacks prometheus.Counter

	// API metrics.
	TileQueries prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roadwatch",
			Name:      "messages_consumed_total",
			Help:      "Total telemetry messages read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roadwatch",
			Name:      "messages_produced_total",
			Help:      "Total enriched events written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roadwatch",
			Name:      "transform_errors_total",
			Help:      "Total telemetry transformation failures.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "roadwatch",
			Name:      "pipeline_running",
			Help:      "1 when the ingest pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "roadwatch",
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "roadwatch",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		RecordsNormalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roadwatch",
			Name:      "records_normalized_total",
			Help:      "Records passed through normalization, by kind.",
		}, []string{"kind"}),
		FetchesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roadwatch",
			Name:      "viewport_fetches_issued_total",
			Help:      "Viewport fetches issued after debouncing.",
		}),
		FetchesSuperseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roadwatch",
			Name:      "viewport_fetches_superseded_total",
			Help:      "Fetch responses discarded because a newer fetch was issued.",
		}),
		FetchesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roadwatch",
			Name:      "viewport_fetches_failed_total",
			Help:      "Viewport fetches that returned an error.",
		}),
		HexCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roadwatch",
			Name:      "hex_boundary_cache_total",
			Help:      "Hex boundary cache lookups by result.",
		}, []string{"result"}),
		HexFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roadwatch",
			Name:      "hex_boundary_fallbacks_total",
			Help:      "Hex boundaries served as approximate fallback polygons.",
		}),
		TileQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roadwatch",
			Name:      "tile_queries_total",
			Help:      "Tile aggregate queries served by the API.",
		}),
	}

	prometheus.MustRegister(
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.RecordsNormalized,
		m.FetchesIssued,
		m.FetchesSuperseded,
		m.FetchesFailed,
		m.HexCache,
		m.HexFallbacks,
		m.TileQueries,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		MessagesConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "roadwatch", Name: "messages_consumed_total"}),
		MessagesProduced:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "roadwatch", Name: "messages_produced_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "roadwatch", Name: "transform_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "roadwatch", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "roadwatch", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "roadwatch", Name: "batch_processing_duration_seconds"}),
		RecordsNormalized:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "roadwatch", Name: "records_normalized_total"}, []string{"kind"}),
		FetchesIssued:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "roadwatch", Name: "viewport_fetches_issued_total"}),
		FetchesSuperseded:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "roadwatch", Name: "viewport_fetches_superseded_total"}),
		FetchesFailed:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "roadwatch", Name: "viewport_fetches_failed_total"}),
		HexCache:                prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "roadwatch", Name: "hex_boundary_cache_total"}, []string{"result"}),
		HexFallbacks:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "roadwatch", Name: "hex_boundary_fallbacks_total"}),
		TileQueries:             prometheus.NewCounter(prometheus.CounterOpts{Namespace: "roadwatch", Name: "tile_queries_total"}),
	}
}
