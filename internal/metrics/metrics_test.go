package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistration(t *testing.T) {
	// Verify all metrics are registered without conflicts
	// This test ensures no duplicate metric names

	metrics := []prometheus.Collector{
		// Broadcaster metrics
		ActiveSessions,
		SessionsJoinedTotal,
		SessionsLeftTotal,
		LinesRelayedTotal,
		BroadcastFanout,
		RecipientWriteFailures,
		SlowClientsEvicted,

		// Server metrics
		AcceptErrorsTotal,
		ConnectionsRefusedTotal,
		RateLimitedLinesTotal,

		// WebSocket bridge metrics
		WSBridgeConnections,
		WSBridgeConnectionsTotal,
	}

	for _, metric := range metrics {
		desc := make(chan *prometheus.Desc, 1)
		metric.Describe(desc)
		close(desc)

		require.NotNil(t, <-desc, "metric should have a valid descriptor")
	}
}

func TestCounterIncrements(t *testing.T) {
	before := testutil.ToFloat64(LinesRelayedTotal)
	LinesRelayedTotal.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(LinesRelayedTotal))

	before = testutil.ToFloat64(SlowClientsEvicted)
	SlowClientsEvicted.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(SlowClientsEvicted))
}

func TestGaugeSet(t *testing.T) {
	ActiveSessions.Set(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(ActiveSessions))
	ActiveSessions.Set(0)
	assert.Equal(t, 0.0, testutil.ToFloat64(ActiveSessions))
}
