// Package monitor exposes the prometheus collectors for the relay path.
// Everything is registered on the default registry and served at /metrics.
package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RelayRequests counts finished data-path requests by endpoint family,
	// model label, and final HTTP status.
	RelayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_requests_total",
		Help: "Finished relay requests by mode, model, and status code.",
	}, []string{"mode", "model", "code"})

	// QueueRejections counts non-blocking enqueues refused because a model's
	// queue was full or its worker was shutting down.
	QueueRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_queue_rejections_total",
		Help: "Enqueue attempts rejected by a model worker.",
	}, []string{"model", "reason"})

	// QueueDepth and QueueCapacity expose each model queue's fill level.
	// Series are deleted when a worker is torn down in a pool rebuild.
	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "relay_queue_depth",
		Help: "Jobs currently queued per model worker.",
	}, []string{"model"})
	QueueCapacity = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "relay_queue_capacity",
		Help: "Configured queue bound per model worker.",
	}, []string{"model"})

	// AdmissionWait observes how long a job waited in limiter admission
	// before its upstream call started.
	AdmissionWait = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relay_admission_wait_seconds",
		Help:    "Time spent admitting a job against its quota bundles.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"model"})

	// UpstreamDuration observes the upstream call latency per model.
	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relay_upstream_duration_seconds",
		Help:    "Upstream backend call latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"model", "backend"})

	// TokensEstimated and TokensActual track the admission estimate against
	// what settle observed; their ratio is the estimator's calibration.
	TokensEstimated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_tokens_estimated_total",
		Help: "Tokens charged at admission time.",
	}, []string{"model"})
	TokensActual = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_tokens_actual_total",
		Help: "Tokens reported by upstream usage, falling back to the estimate.",
	}, []string{"model"})
)
