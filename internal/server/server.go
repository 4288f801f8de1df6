package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wqy-jstart/Socket-Chat/internal/broadcast"
	"github.com/wqy-jstart/Socket-Chat/internal/config"
	"github.com/wqy-jstart/Socket-Chat/internal/version"
)

type Server struct {
	echo        *echo.Echo
	config      *config.Config
	broadcaster *broadcast.Broadcaster
	clock       clockwork.Clock
	ready       func() bool
	startTime   time.Time
}

// NewServer wires the ops HTTP server. ready reports whether the relay
// listener is bound and is the readiness check.
func NewServer(cfg *config.Config, b *broadcast.Broadcaster, clock clockwork.Clock, ready func() bool) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	srv := &Server{
		echo:        e,
		config:      cfg,
		broadcaster: b,
		clock:       clock,
		ready:       ready,
		startTime:   clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", s.handleVersion)

	// Browser access to the relay
	s.echo.GET("/ws", s.handleWebSocket)
}

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := s.clock.Since(s.startTime).Seconds()
	return c.JSON(http.StatusOK, map[string]any{
		"status":   "ok",
		"uptime":   uptime,
		"sessions": s.broadcaster.Len(),
	})
}

func (s *Server) handleReadiness(c echo.Context) error {
	if s.ready == nil || !s.ready() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":       "unhealthy",
			"failed_check": "relay_listener",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(http.StatusOK, version.Get())
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.OpsPort))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
