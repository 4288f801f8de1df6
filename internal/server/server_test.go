package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wqy-jstart/Socket-Chat/internal/broadcast"
	"github.com/wqy-jstart/Socket-Chat/internal/config"
)

func testOpsConfig() *config.Config {
	return &config.Config{
		Port:             "0",
		OpsPort:          "0",
		MaxLineBytes:     8192,
		SendBufferSize:   16,
		SessionRateLimit: 1000,
		SessionRateBurst: 1000,
		WriteTimeout:     time.Second,
	}
}

func newTestServer(t *testing.T, ready func() bool) *Server {
	t.Helper()

	b := broadcast.New(clockwork.NewRealClock(), 16)
	t.Cleanup(b.Stop)

	return NewServer(testOpsConfig(), b, clockwork.NewRealClock(), ready)
}

func TestLivenessEndpoint(t *testing.T) {
	s := newTestServer(t, func() bool { return true })

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["sessions"])
}

func TestReadinessEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		ready    func() bool
		wantCode int
	}{
		{"ready", func() bool { return true }, http.StatusOK},
		{"not ready", func() bool { return false }, http.StatusServiceUnavailable},
		{"no check wired", nil, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.ready)

			req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
			rec := httptest.NewRecorder()
			s.echo.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestVersionEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "version")
	assert.Contains(t, body, "commit")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "relay_active_sessions")
}
