package relay

import (
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/wqy-jstart/Socket-Chat/internal/broadcast"
	apperrors "github.com/wqy-jstart/Socket-Chat/internal/errors"
	"github.com/wqy-jstart/Socket-Chat/internal/metrics"
)

const (
	initialAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff     = time.Second
)

// Config carries the relay server's tunables.
type Config struct {
	Addr           string
	MaxConnections int64
	MaxLineBytes   int
	RateLimit      float64
	RateBurst      int
	WriteTimeout   time.Duration
}

// Server binds the TCP listener and spawns one Session per accepted connection.
type Server struct {
	cfg         Config
	broadcaster *broadcast.Broadcaster
	clock       clockwork.Clock
	limiter     *ConnectionLimiter
	listener    net.Listener
	wg          sync.WaitGroup
}

func NewServer(cfg Config, b *broadcast.Broadcaster, clock clockwork.Clock) *Server {
	return &Server{
		cfg:         cfg,
		broadcaster: b,
		clock:       clock,
		limiter:     NewConnectionLimiter(cfg.MaxConnections),
	}
}

// Start binds the listening port and launches the accept loop.
// A bind failure (typically the port is already in use) is a startup-fatal
// error, reported distinctly so the operator can tell it apart from runtime
// I/O errors.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return apperrors.StartupError("failed to bind listening port", err).WithContext("addr", s.cfg.Addr)
	}
	s.listener = ln
	slog.Info("Relay listening", "addr", ln.Addr().String())

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Ready reports whether the listener is bound.
func (s *Server) Ready() bool {
	return s.listener != nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	var backoff time.Duration
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			metrics.AcceptErrorsTotal.Inc()
			if backoff == 0 {
				backoff = initialAcceptBackoff
			} else {
				backoff *= 2
			}
			if backoff > maxAcceptBackoff {
				backoff = maxAcceptBackoff
			}
			slog.Warn("Accept failed, retrying", "error", err, "backoff", backoff)
			s.clock.Sleep(backoff)
			continue
		}
		backoff = 0
		s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	if !s.limiter.Acquire() {
		metrics.ConnectionsRefusedTotal.Inc()
		slog.Warn("Refusing connection: at capacity",
			"remote_addr", conn.RemoteAddr().String(),
			"max_connections", s.cfg.MaxConnections,
		)
		_ = conn.SetWriteDeadline(s.clock.Now().Add(s.cfg.WriteTimeout))
		_, _ = conn.Write([]byte("server is at capacity, try again later\n"))
		_ = conn.Close()
		return
	}

	sess, err := newSession(conn, s.broadcaster, s.clock, s.cfg)
	if err != nil {
		// Broadcaster is shutting down; turn the connection away.
		s.limiter.Release()
		_ = conn.Close()
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.limiter.Release()
		sess.run()
	}()
}

// Close stops accepting new connections. Live sessions keep running until
// their connections close; stopping the broadcaster closes every sink.
func (s *Server) Close() {
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

// Wait blocks until the accept loop and all sessions have finished, or the
// timeout elapses. Returns true on clean completion.
func (s *Server) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-s.clock.After(timeout):
		return false
	}
}
