package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/wqy-jstart/Socket-Chat/internal/metrics"
)

var upgrader = websocket.Upgrader{
	// The bridge serves the same open line protocol as the TCP port, so any
	// origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsWriter adapts a WebSocket connection to the broadcaster's LineWriter:
// one relayed line per text message.
type wsWriter struct {
	conn    *websocket.Conn
	clock   clockwork.Clock
	timeout time.Duration
}

func (w *wsWriter) WriteLine(line string) error {
	_ = w.conn.SetWriteDeadline(w.clock.Now().Add(w.timeout))
	return w.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (w *wsWriter) Close() error {
	return w.conn.Close()
}

// handleWebSocket joins a browser client to the same broadcaster the TCP
// sessions use. The framing is identical: inbound messages are relayed as
// "<remote> says: <line>", outbound messages are relayed lines verbatim.
func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "upgrade failed")
	}

	id, err := s.broadcaster.Join(&wsWriter{conn: conn, clock: s.clock, timeout: s.config.WriteTimeout})
	if err != nil {
		_ = conn.Close()
		return nil
	}

	remote := conn.RemoteAddr().String()
	logger := slog.With("session_id", id.String(), "remote_addr", remote)
	logger.Info("Bridge client connected", "total_sessions", s.broadcaster.Len())

	metrics.WSBridgeConnections.Inc()
	metrics.WSBridgeConnectionsTotal.Inc()

	defer func() {
		s.broadcaster.Leave(id)
		_ = conn.Close()
		metrics.WSBridgeConnections.Dec()
		logger.Info("Bridge client left", "total_sessions", s.broadcaster.Len())
	}()

	limiter := rate.NewLimiter(rate.Limit(s.config.SessionRateLimit), s.config.SessionRateBurst)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return nil
		}
		if !limiter.Allow() {
			metrics.RateLimitedLinesTotal.Inc()
			logger.Warn("Rate limit exceeded, dropping line")
			continue
		}
		s.broadcaster.Broadcast(fmt.Sprintf("%s says: %s", remote, string(msg)))
	}
}
