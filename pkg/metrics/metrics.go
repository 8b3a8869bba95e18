package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector provides application metrics collection.
// Every Record/Observe method is safe on a nil *Collector.
type Collector struct {
	// HTTP server metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Upstream (NASA POWER, identity, LLM, Overpass) metrics
	UpstreamRequestsTotal *prometheus.CounterVec
	UpstreamDuration      *prometheus.HistogramVec

	// Cache metrics
	CacheRequestsTotal *prometheus.CounterVec

	// Prediction metrics
	PredictionsTotal *prometheus.CounterVec
	BatchSize        *prometheus.HistogramVec
	JobsTotal        *prometheus.CounterVec
}

// NewCollector creates a new metrics collector registered on reg
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route, method, and status",
			},
			[]string{"route", "method", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"route"},
		),

		UpstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Total number of calls to external services by service and outcome",
			},
			[]string{"service", "outcome"},
		),

		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_duration_seconds",
				Help:      "External service call duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60},
			},
			[]string{"service"},
		),

		CacheRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Cache lookups by cache name and result",
			},
			[]string{"cache", "result"},
		),

		PredictionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Bloom predictions by outcome",
			},
			[]string{"outcome"},
		),

		BatchSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_size",
				Help:      "Number of regions per batch operation",
				Buckets:   []float64{1, 2, 4, 6, 8, 12, 24},
			},
			[]string{"operation"},
		),

		JobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prediction_jobs_total",
				Help:      "Async prediction jobs by final status",
			},
			[]string{"status"},
		),
	}
}

// Timer provides timing functionality for operations
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer creates a new timer
func NewTimer(observer prometheus.Observer) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: observer,
	}
}

// ObserveDuration records the elapsed time since timer creation
func (t *Timer) ObserveDuration() time.Duration {
	duration := time.Since(t.start)
	if t.observer != nil {
		t.observer.Observe(duration.Seconds())
	}
	return duration
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(route, method, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequestsTotal.WithLabelValues(route, method, status).Inc()
	c.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordUpstream records one call to an external service, outcome is "success" or "error"
func (c *Collector) RecordUpstream(service string, err error, duration time.Duration) {
	if c == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.UpstreamRequestsTotal.WithLabelValues(service, outcome).Inc()
	c.UpstreamDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordCache records a cache hit or miss
func (c *Collector) RecordCache(cache string, hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheRequestsTotal.WithLabelValues(cache, result).Inc()
}

// RecordPrediction increments the prediction counter
func (c *Collector) RecordPrediction(outcome string) {
	if c == nil {
		return
	}
	c.PredictionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveBatch records the size of a dashboard or batch prediction request
func (c *Collector) ObserveBatch(operation string, size int) {
	if c == nil {
		return
	}
	c.BatchSize.WithLabelValues(operation).Observe(float64(size))
}

// RecordJob increments the job counter for a final status
func (c *Collector) RecordJob(status string) {
	if c == nil {
		return
	}
	c.JobsTotal.WithLabelValues(status).Inc()
}
