// Package metrics exposes the dispatcher's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ValidateRequests counts /validate requests by consensus mode.
	ValidateRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cas_validate_requests_total",
		Help: "Total number of /validate requests.",
	}, []string{"consensus"})

	// ComputeRequests counts /compute requests by engine, template, and outcome.
	ComputeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cas_compute_requests_total",
		Help: "Total number of /compute requests.",
	}, []string{"engine", "template", "success"})

	// EngineErrors counts per-engine failures surfaced to a caller.
	EngineErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cas_engine_errors_total",
		Help: "Total number of engine-plane errors, by engine.",
	}, []string{"engine"})

	// RequestDuration observes end-to-end handler latency by endpoint.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cas_request_duration_seconds",
		Help:    "Request handling latency in seconds, by endpoint.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
