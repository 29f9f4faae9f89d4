package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// bird map service.
type Metrics struct {
	FilterRequests    prometheus.Counter
	FilterRejected    prometheus.Counter // malformed specs rejected at the boundary
	FilterDuration    prometheus.Histogram
	RecordsReturned   prometheus.Histogram
	RecordsSuppressed prometheus.Counter
	DatasetSize       prometheus.Gauge

	// Live sighting ingest metrics.
	SightingsIngested prometheus.Counter
	IngestErrors      prometheus.Counter
	IngestRunning     prometheus.Gauge

	// Geocoding search metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FilterRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bird_map",
			Name:      "filter_requests_total",
			Help:      "Total filter pipeline invocations.",
		}),
		FilterRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bird_map",
			Name:      "filter_rejected_total",
			Help:      "Filter specs rejected as malformed before any filtering ran.",
		}),
		FilterDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bird_map",
			Name:      "filter_duration_seconds",
			Help:      "Duration of a complete filter-dedup-assign pass.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		RecordsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bird_map",
			Name:      "records_returned",
			Help:      "Number of records returned per filter call.",
			Buckets:   []float64{0, 10, 50, 100, 500, 1000, 5000, 10000},
		}),
		RecordsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bird_map",
			Name:      "records_suppressed_total",
			Help:      "Records collapsed by the proximity dedup pass.",
		}),
		DatasetSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bird_map",
			Name:      "dataset_size",
			Help:      "Observations currently in the working dataset.",
		}),
		SightingsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bird_map",
			Name:      "sightings_ingested_total",
			Help:      "Live sightings appended to the dataset from the ingest topic.",
		}),
		IngestErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bird_map",
			Name:      "ingest_errors_total",
			Help:      "Sighting messages skipped due to parse or append failures.",
		}),
		IngestRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bird_map",
			Name:      "ingest_running",
			Help:      "1 when the sighting ingest loop is active, 0 when shut down.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bird_map",
			Name:      "geocode_requests_total",
			Help:      "Geocoding search requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bird_map",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bird_map",
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bird_map",
			Name:      "geocode_enabled",
			Help:      "1 when the geocoding search proxy is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.FilterRequests,
		m.FilterRejected,
		m.FilterDuration,
		m.RecordsReturned,
		m.RecordsSuppressed,
		m.DatasetSize,
		m.SightingsIngested,
		m.IngestErrors,
		m.IngestRunning,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FilterRequests:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bird_map", Name: "filter_requests_total"}),
		FilterRejected:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bird_map", Name: "filter_rejected_total"}),
		FilterDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "bird_map", Name: "filter_duration_seconds"}),
		RecordsReturned:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "bird_map", Name: "records_returned"}),
		RecordsSuppressed:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bird_map", Name: "records_suppressed_total"}),
		DatasetSize:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "bird_map", Name: "dataset_size"}),
		SightingsIngested:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bird_map", Name: "sightings_ingested_total"}),
		IngestErrors:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bird_map", Name: "ingest_errors_total"}),
		IngestRunning:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "bird_map", Name: "ingest_running"}),
		GeocodeRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "bird_map", Name: "geocode_requests_total"}, []string{"outcome"}),
		GeocodeCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "bird_map", Name: "geocode_cache_total"}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "bird_map", Name: "geocode_api_duration_seconds"}),
		GeocodeEnabled:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "bird_map", Name: "geocode_enabled"}),
	}
}
