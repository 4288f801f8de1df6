package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/wqy-jstart/Socket-Chat/internal/broadcast"
	"github.com/wqy-jstart/Socket-Chat/internal/config"
	apperrors "github.com/wqy-jstart/Socket-Chat/internal/errors"
	"github.com/wqy-jstart/Socket-Chat/internal/logging"
	"github.com/wqy-jstart/Socket-Chat/internal/relay"
	"github.com/wqy-jstart/Socket-Chat/internal/server"
	"github.com/wqy-jstart/Socket-Chat/internal/version"
)

const shutdownTimeout = 15 * time.Second

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	info := version.Get()
	slog.Info("Starting chatsrv",
		"version", info.Version,
		"commit", info.Commit,
		"env", cfg.AppEnv,
	)

	broadcaster := broadcast.New(clock, cfg.SendBufferSize)

	relaySrv := relay.NewServer(relay.Config{
		Addr:           ":" + cfg.Port,
		MaxConnections: int64(cfg.MaxConnections),
		MaxLineBytes:   cfg.MaxLineBytes,
		RateLimit:      cfg.SessionRateLimit,
		RateBurst:      cfg.SessionRateBurst,
		WriteTimeout:   cfg.WriteTimeout,
	}, broadcaster, clock)

	if err := relaySrv.Start(); err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			slog.Error("Failed to start relay server", appErr.Fields()...)
		} else {
			slog.Error("Failed to start relay server", "error", err)
		}
		os.Exit(1)
	}

	opsSrv := server.NewServer(cfg, broadcaster, clock, relaySrv.Ready)
	go func() {
		if err := opsSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Ops server failed", "error", err)
			os.Exit(1)
		}
	}()

	done := make(chan struct{})
	go runGracefulShutdown(opsSrv, relaySrv, broadcaster, done)
	<-done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}

func runGracefulShutdown(opsSrv *server.Server, relaySrv *relay.Server, b *broadcast.Broadcaster, done chan<- struct{}) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("Shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := opsSrv.Shutdown(ctx); err != nil {
		slog.Error("Ops server shutdown failed", "error", err)
	}

	// Stop accepting, then tear down every live session via the broadcaster.
	relaySrv.Close()
	b.Stop()
	if !relaySrv.Wait(shutdownTimeout) {
		slog.Warn("Sessions did not drain before timeout", "timeout", shutdownTimeout)
	}

	slog.Info("Shutdown complete")
	close(done)
}
