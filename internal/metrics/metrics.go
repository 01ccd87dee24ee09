package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP API metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Graph API client metrics
	GraphRequestsTotal   *prometheus.CounterVec
	GraphRetriesTotal    *prometheus.CounterVec
	GraphRequestDuration *prometheus.HistogramVec

	// Domain metrics
	PublishTotal         *prometheus.CounterVec
	TokenChecksTotal     *prometheus.CounterVec
	MetricPointsUpserted prometheus.Counter
	AttachmentsSaved     *prometheus.CounterVec
	DuplicateSubmissions prometheus.Counter
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "autopost_http_requests_total",
					Help: "Total number of HTTP API requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "autopost_http_request_duration_seconds",
					Help:    "HTTP API request latency in seconds",
					Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
				},
				[]string{"method", "path"},
			),
			GraphRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "autopost_graph_requests_total",
					Help: "Graph API attempts by endpoint and status code (0 = no response)",
				},
				[]string{"endpoint", "status"},
			),
			GraphRetriesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "autopost_graph_retries_total",
					Help: "Graph API retries by reason",
				},
				[]string{"reason"},
			),
			GraphRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "autopost_graph_request_duration_seconds",
					Help:    "Graph API call latency including retries",
					Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 60, 120},
				},
				[]string{"endpoint"},
			),
			PublishTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "autopost_publish_total",
					Help: "Publisher operations by operation and result",
				},
				[]string{"operation", "result"},
			),
			TokenChecksTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "autopost_token_checks_total",
					Help: "Token validation checks by outcome",
				},
				[]string{"valid"},
			),
			MetricPointsUpserted: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "autopost_metric_points_upserted_total",
					Help: "Analytics metric points written",
				},
			),
			AttachmentsSaved: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "autopost_attachments_saved_total",
					Help: "Downloaded conversation attachments by result",
				},
				[]string{"result"},
			),
			DuplicateSubmissions: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "autopost_duplicate_submissions_total",
					Help: "Publish requests rejected by the duplicate-submission guard",
				},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, or nil before Initialize.
func Get() *Metrics {
	return instance
}
