package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the crawler.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	MoviesTotal     prometheus.Counter
	PagesTotal      *prometheus.CounterVec
	RetriesTotal    prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmdb_requests_total",
			Help: "Total HTTP requests issued to the TMDB API.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tmdb_request_duration_seconds",
			Help:    "HTTP request latency for TMDB API requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	movies := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tmdb_movies_collected_total",
			Help: "Total number of unique movies kept after de-duplication.",
		},
	)
	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmdb_pages_total",
			Help: "Listing pages accepted per endpoint.",
		},
		[]string{"endpoint"},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tmdb_retries_total",
			Help: "Total number of repeated attempts after a failed request.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmdb_errors_total",
			Help: "Total number of failed request attempts by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requests, requestDuration, movies, pages, retries, errorsTotal)

	return &Metrics{
		Registry:        registry,
		RequestsTotal:   requests,
		RequestDuration: requestDuration,
		MoviesTotal:     movies,
		PagesTotal:      pages,
		RetriesTotal:    retries,
		ErrorsTotal:     errorsTotal,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncMovies increments the unique movies counter.
func (m *Metrics) IncMovies() {
	if m == nil {
		return
	}
	m.MoviesTotal.Inc()
}

// IncPage increments the accepted pages counter for an endpoint.
func (m *Metrics) IncPage(endpoint string) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(endpoint).Inc()
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
