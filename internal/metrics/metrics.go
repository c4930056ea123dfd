// Package metrics instruments the message bus and the async observer and
// predictor wrappers with Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Bus metrics
	MessagesPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prognose_bus_messages_published_total",
			Help: "Total number of messages published, by source",
		},
		[]string{"source"},
	)

	MessagesDeliveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prognose_bus_messages_delivered_total",
			Help: "Total number of subscriber deliveries completed, by source",
		},
		[]string{"source"},
	)

	HandlerPanicsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prognose_bus_handler_panics_total",
			Help: "Total number of subscriber handler panics recovered by the bus",
		},
		[]string{"source"},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "prognose_bus_queue_depth",
			Help: "Number of messages currently queued for delivery by a deferred-mode bus (not updated in async mode)",
		},
	)

	// Observer metrics
	ObserverStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prognose_observer_steps_total",
			Help: "Total number of observer step() calls, by source",
		},
		[]string{"source"},
	)

	ObserverDropsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prognose_observer_drops_total",
			Help: "Total number of input/output messages dropped by the async observer due to a busy mutex",
		},
		[]string{"source"},
	)

	ObserverInitializedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prognose_observer_initialized_total",
			Help: "Total number of times an observer was initialized (should be 1 per source over its lifetime)",
		},
		[]string{"source"},
	)

	// Predictor metrics
	PredictionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prognose_predictor_duration_seconds",
			Help:    "Time taken to run a single prediction",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	PredictorDropsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prognose_predictor_drops_total",
			Help: "Total number of state-estimate messages dropped by the async predictor due to a busy mutex",
		},
		[]string{"source"},
	)

	PredictionSampleCount = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prognose_predictor_sample_count",
			Help:    "Sample count used by the most recent Monte-Carlo prediction",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(
		MessagesPublishedTotal,
		MessagesDeliveredTotal,
		HandlerPanicsTotal,
		QueueDepth,
		ObserverStepsTotal,
		ObserverDropsTotal,
		ObserverInitializedTotal,
		PredictionDuration,
		PredictorDropsTotal,
		PredictionSampleCount,
	)
}

// Handler returns the Prometheus HTTP handler for a /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing an operation and recording it to a
// histogram once it completes.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDurationVec records the elapsed time to a histogram vec.
func (t *Timer) ObserveDurationVec(histogram *prometheus.HistogramVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
