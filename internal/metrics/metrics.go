// Package metrics provides Prometheus metrics for lipid queries and the
// source connectors behind them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lipidlibrarian"

var (
	// QueriesTotal tracks resolved queries by detected method and outcome
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_total",
			Help:      "Total number of lipid queries by detected method and status",
		},
		[]string{"method", "status"},
	)

	// QueryDuration tracks end-to-end query duration
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of lipid queries in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"method"},
	)

	// ConnectorCallsTotal tracks connector calls by query shape and outcome
	ConnectorCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connector_calls_total",
			Help:      "Total number of source connector calls",
		},
		[]string{"source", "shape", "status"},
	)

	// ConnectorDuration tracks connector call duration
	ConnectorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "connector_duration_seconds",
			Help:      "Duration of source connector calls in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source", "shape"},
	)

	// ConnectorResultsTotal counts lipid records returned by connectors
	ConnectorResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connector_results_total",
			Help:      "Total number of lipid records returned by source connectors",
		},
		[]string{"source"},
	)

	// HTTPClientRequestsTotal tracks outbound REST requests
	HTTPClientRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http_client",
			Name:      "requests_total",
			Help:      "Total number of outbound HTTP requests",
		},
		[]string{"source", "status_code"},
	)

	// HTTPClientRequestDuration tracks outbound REST request duration
	HTTPClientRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http_client",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound HTTP requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	// RateLimitWaitTime tracks time spent waiting on the outbound limiter
	RateLimitWaitTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "wait_seconds",
			Help:      "Time spent waiting for the outbound rate limiter in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"source"},
	)

	// NormalizerResolutions tracks name resolutions by status
	NormalizerResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "normalizer_resolutions_total",
			Help:      "Total number of lipid name resolutions by status",
		},
		[]string{"status"},
	)

	// APIRequestsTotal tracks inbound API requests by route and status
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests by route and status code",
		},
		[]string{"route", "status_code"},
	)

	// WebSocketClients tracks connected progress stream clients
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Number of connected query progress clients",
		},
	)

	// ProgressEventsDropped counts events discarded because the broadcast
	// queue was full
	ProgressEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "progress",
			Name:      "events_dropped_total",
			Help:      "Total number of query progress events dropped by a full queue",
		},
	)
)
