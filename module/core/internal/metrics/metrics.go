// Package metrics exposes the Prometheus collectors for geotrack. Collectors
// register on the default registry and are served by promhttp at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Validation outcomes.
const (
	OutcomeMatch       = "validated_match"
	OutcomeEmpty       = "validated_empty"
	OutcomeUnvalidated = "unvalidated"
	OutcomeError       = "error"
)

// Record ingestion sources.
const (
	SourceHTTP = "http"
	SourceMQTT = "mqtt"
	SourceTCP  = "tcp"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geotrack_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	Validations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geotrack_validations_total",
			Help: "Total number of geofence validations by outcome",
		},
		[]string{"outcome"},
	)

	RecordsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geotrack_records_ingested_total",
			Help: "Total number of records stored by ingestion source",
		},
		[]string{"source"},
	)

	PlaceOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geotrack_place_operations_total",
			Help: "Total number of place operations by result",
		},
		[]string{"op", "result"},
	)

	EventPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geotrack_event_publish_failures_total",
			Help: "Total number of events that could not be published",
		},
	)
)

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

func RecordValidation(outcome string) {
	Validations.WithLabelValues(outcome).Inc()
}

func RecordIngested(source string, n int) {
	if n <= 0 {
		return
	}
	RecordsIngested.WithLabelValues(source).Add(float64(n))
}

// RecordPlaceOperation counts op with result "ok" or "error".
func RecordPlaceOperation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	PlaceOperations.WithLabelValues(op, result).Inc()
}

func RecordPublishFailure() {
	EventPublishFailures.Inc()
}
