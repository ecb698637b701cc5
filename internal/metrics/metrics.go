// Waypool Realtime - Ride Matchmaking and Channel Coordination
// Copyright 2026 Waypool
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/waypool/waypool-realtime

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the realtime server:
// - WebSocket connection lifecycle
// - Ride channel membership
// - Event routing throughput and errors
// - Authentication failures
// - HTTP endpoint latency

var (
	// Connection Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_active_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_connections_total",
			Help: "Total number of WebSocket connections accepted",
		},
	)

	WSEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_connection_evictions_total",
			Help: "Total number of connections superseded by a newer connection for the same user",
		},
	)

	// Channel Metrics
	RideChannels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ride_channels_active",
			Help: "Current number of ride channels with at least one member",
		},
	)

	ChannelJoins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ride_channel_joins_total",
			Help: "Total number of ride channel joins",
		},
	)

	ChannelLeaves = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ride_channel_leaves_total",
			Help: "Total number of ride channel departures",
		},
	)

	// Event Metrics
	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_events_received_total",
			Help: "Total number of inbound events by type",
		},
		[]string{"event"},
	)

	EventsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_events_sent_total",
			Help: "Total number of outbound events by type",
		},
		[]string{"event"},
	)

	EventErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_event_errors_total",
			Help: "Total number of event handling errors by type",
		},
		[]string{"error_type"}, // "malformed", "unknown_event", "validation", "rate_limited"
	)

	DroppedSends = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_dropped_sends_total",
			Help: "Total number of outbound messages dropped due to a full client buffer",
		},
	)

	// Auth Metrics
	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Total number of rejected connection attempts by reason",
		},
		[]string{"reason"}, // "missing", "expired", "invalid"
	)

	// API Endpoint Metrics
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
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordAPIRequest records an HTTP request with its latency.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordEventReceived records an inbound event by type.
func RecordEventReceived(event string) {
	EventsReceived.WithLabelValues(event).Inc()
}

// RecordEventSent records an outbound event by type.
func RecordEventSent(event string) {
	EventsSent.WithLabelValues(event).Inc()
}

// RecordEventError records an event handling failure by category.
func RecordEventError(errorType string) {
	EventErrors.WithLabelValues(errorType).Inc()
}

// RecordAuthFailure records a rejected connection attempt.
func RecordAuthFailure(reason string) {
	AuthFailures.WithLabelValues(reason).Inc()
}
