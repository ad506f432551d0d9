// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// WSConnectionsActive tracks open websocket connections.
	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connections_active",
			Help: "Number of open websocket connections",
		},
	)

	// AuthFailuresTotal tracks requests rejected by authentication, by surface.
	AuthFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Requests and connection attempts rejected by authentication",
		},
		[]string{"surface"},
	)

	// NATSConnected is 1 while the notification broker connection is up.
	NATSConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nats_connected",
			Help: "Whether the notification broker connection is up",
		},
	)

	// OnlineIdentities tracks identities with at least one live connection.
	OnlineIdentities = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_online_identities",
			Help: "Number of identities currently online",
		},
	)

	// EventsDeliveredTotal tracks events enqueued to a live connection.
	EventsDeliveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_delivered_total",
			Help: "Events enqueued to live connections",
		},
		[]string{"type"},
	)

	// EventsDroppedTotal tracks events that never reached a connection queue.
	EventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_dropped_total",
			Help: "Events dropped because the target was offline or its queue was full",
		},
		[]string{"type", "reason"},
	)

	// MessagesTotal tracks total messages sent.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages persisted",
		},
		[]string{"origin"},
	)

	// MessagesAutoReadTotal tracks messages marked read on arrival.
	MessagesAutoReadTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_auto_read_total",
			Help: "Messages marked read because the recipient had the conversation open",
		},
	)

	// AutoReadFailuresTotal tracks stored messages whose read-on-arrival
	// update failed; they are delivered unread.
	AutoReadFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_auto_read_failures_total",
			Help: "Messages left unread because the read-on-arrival update failed",
		},
	)

	// ReadReceiptsTotal tracks messages flipped to read by mark-read calls.
	ReadReceiptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_marked_read_total",
			Help: "Messages flipped to read by mark-as-read",
		},
	)

	// NotificationFailuresTotal tracks failed offline notification dispatches.
	NotificationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Offline notifications that could not be dispatched",
		},
		[]string{"reason"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordDelivered counts an event enqueued to a connection.
func RecordDelivered(eventType string) {
	EventsDeliveredTotal.WithLabelValues(eventType).Inc()
}

// RecordDropped counts an event that could not be enqueued.
func RecordDropped(eventType, reason string) {
	EventsDroppedTotal.WithLabelValues(eventType, reason).Inc()
}

// IncrementWSConnections increments the open websocket connection count.
func IncrementWSConnections() {
	WSConnectionsActive.Inc()
}

// DecrementWSConnections decrements the open websocket connection count.
func DecrementWSConnections() {
	WSConnectionsActive.Dec()
}
