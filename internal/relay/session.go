package relay

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/wqy-jstart/Socket-Chat/internal/broadcast"
	"github.com/wqy-jstart/Socket-Chat/internal/metrics"
)

// connWriter adapts a net.Conn to the broadcaster's LineWriter with a
// per-write deadline so one stalled peer cannot wedge its writer goroutine.
type connWriter struct {
	conn    net.Conn
	clock   clockwork.Clock
	timeout time.Duration
}

func (w *connWriter) WriteLine(line string) error {
	_ = w.conn.SetWriteDeadline(w.clock.Now().Add(w.timeout))
	_, err := w.conn.Write([]byte(line + "\n"))
	return err
}

func (w *connWriter) Close() error {
	return w.conn.Close()
}

// Session owns one accepted connection: it joins the broadcaster, relays every
// inbound line tagged with the peer's address, and leaves exactly once when
// the read loop ends.
type Session struct {
	id          uuid.UUID
	conn        net.Conn
	remote      string
	broadcaster *broadcast.Broadcaster
	limiter     *rate.Limiter
	maxLine     int
	logger      *slog.Logger
	closeOnce   sync.Once
}

func newSession(conn net.Conn, b *broadcast.Broadcaster, clock clockwork.Clock, cfg Config) (*Session, error) {
	id, err := b.Join(&connWriter{conn: conn, clock: clock, timeout: cfg.WriteTimeout})
	if err != nil {
		return nil, err
	}

	remote := conn.RemoteAddr().String()
	return &Session{
		id:          id,
		conn:        conn,
		remote:      remote,
		broadcaster: b,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		maxLine:     cfg.MaxLineBytes,
		logger:      slog.With("session_id", id.String(), "remote_addr", remote),
	}, nil
}

// run reads lines until the peer disconnects or the connection is closed.
// Every exit path goes through close, so leave happens exactly once.
func (s *Session) run() {
	defer s.close()

	s.logger.Info("Client connected", "total_sessions", s.broadcaster.Len())

	scanner := bufio.NewScanner(s.conn)
	scanner.Buffer(make([]byte, 0, 1024), s.maxLine)
	for scanner.Scan() {
		line := scanner.Text()
		if !s.limiter.Allow() {
			metrics.RateLimitedLinesTotal.Inc()
			s.logger.Warn("Rate limit exceeded, dropping line")
			continue
		}
		// The sender is a registered session like any other, so it receives
		// its own message back.
		s.broadcaster.Broadcast(fmt.Sprintf("%s says: %s", s.remote, line))
	}

	if err := scanner.Err(); err != nil {
		s.logger.Info("Client dropped", "error", err)
	} else {
		s.logger.Info("Client disconnected")
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.broadcaster.Leave(s.id)
		_ = s.conn.Close()
		s.logger.Info("Client left", "total_sessions", s.broadcaster.Len())
	})
}
