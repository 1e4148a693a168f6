// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

// Package metrics provides Prometheus instrumentation for the API surface,
// the persistence layer, the ingestors and the AI backend client.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Event ingestion metrics
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_ingested_total",
			Help: "Total number of events accepted by the events API",
		},
		[]string{"event_type"},
	)

	EventsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_purged_total",
			Help: "Total number of events removed by retention sweeps",
		},
	)

	// APRS ingestor metrics
	APRSPacketsParsed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aprs_packets_parsed_total",
			Help: "Total number of APRS packets successfully parsed",
		},
	)

	APRSPacketsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aprs_packets_skipped_total",
			Help: "Total number of APRS lines ignored (comments, unparseable)",
		},
	)

	APRSReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aprs_reconnects_total",
			Help: "Total number of APRS-IS reconnect attempts",
		},
	)

	// Context enrichment metrics
	IngestorRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestor_requests_total",
			Help: "Total number of upstream ingestor requests",
		},
		[]string{"ingestor", "outcome"}, // outcome: "ok" or "error"
	)

	// AI backend metrics
	AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI backend requests",
		},
		[]string{"outcome"}, // "ok", "error", "circuit_open"
	)

	AIRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI backend request duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
	)

	// WebSocket metrics
	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connections_active",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_messages_sent_total",
			Help: "Total number of WebSocket messages broadcast to clients",
		},
	)

	// Auth metrics
	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Total number of rejected API key authentications",
		},
		[]string{"code"},
	)
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordIngestorRequest records an upstream ingestor call outcome.
func RecordIngestorRequest(ingestor string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	IngestorRequests.WithLabelValues(ingestor, outcome).Inc()
}

// RecordAIRequest records an AI backend call.
func RecordAIRequest(outcome string, duration time.Duration) {
	AIRequestsTotal.WithLabelValues(outcome).Inc()
	AIRequestDuration.Observe(duration.Seconds())
}
