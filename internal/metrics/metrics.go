package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Broadcaster Metrics
var (
	// ActiveSessions tracks the current size of the broadcast registry
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_active_sessions",
			Help: "Current number of sessions in the broadcast registry",
		},
	)

	// SessionsJoinedTotal tracks sessions that joined the registry
	SessionsJoinedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_sessions_joined_total",
			Help: "Total sessions that joined the broadcast registry",
		},
	)

	// SessionsLeftTotal tracks sessions removed from the registry
	SessionsLeftTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_sessions_left_total",
			Help: "Total sessions removed from the broadcast registry",
		},
	)

	// LinesRelayedTotal tracks lines accepted for fan-out
	LinesRelayedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_lines_relayed_total",
			Help: "Total lines accepted for broadcast fan-out",
		},
	)

	// BroadcastFanout tracks recipient set size per broadcast
	BroadcastFanout = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_broadcast_fanout_size",
			Help:    "Number of recipients per broadcast",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	// RecipientWriteFailures tracks failed writes to a single recipient during fan-out
	RecipientWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_recipient_write_failures_total",
			Help: "Total failed writes to a single recipient during fan-out",
		},
	)

	// SlowClientsEvicted tracks recipients evicted due to a full send buffer
	SlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_slow_clients_evicted_total",
			Help: "Total recipients evicted because their send buffer was full",
		},
	)
)

// Server Metrics
var (
	// AcceptErrorsTotal tracks transient accept-loop failures
	AcceptErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_accept_errors_total",
			Help: "Total transient accept-loop failures",
		},
	)

	// ConnectionsRefusedTotal tracks connections refused by the connection limiter
	ConnectionsRefusedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_connections_refused_total",
			Help: "Total connections refused because the server was at capacity",
		},
	)

	// RateLimitedLinesTotal tracks inbound lines dropped by the per-session rate limiter
	RateLimitedLinesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_rate_limited_lines_total",
			Help: "Total inbound lines dropped by the per-session rate limiter",
		},
	)
)

// WebSocket Bridge Metrics
var (
	// WSBridgeConnections tracks current WebSocket bridge connections
	WSBridgeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_ws_bridge_connections",
			Help: "Current WebSocket bridge connections",
		},
	)

	// WSBridgeConnectionsTotal tracks WebSocket bridge connections accepted
	WSBridgeConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_ws_bridge_connections_total",
			Help: "Total WebSocket bridge connections accepted",
		},
	)
)
