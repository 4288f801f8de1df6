package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/wqy-jstart/Socket-Chat/internal/logging"
	"github.com/wqy-jstart/Socket-Chat/internal/retry"
)

func main() {
	addr := flag.String("addr", "localhost:8088", "relay server address")
	logLevel := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	flag.Parse()

	logging.InitLogger(*logLevel, "text")

	conn, err := dial(context.Background(), *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not connect to %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Printf("Connected to %s. Type 'exit' to quit.\n", *addr)

	// Relayed lines are printed verbatim as they arrive.
	go func() {
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			fmt.Println(scanner.Text())
		}
		fmt.Println("Connection closed by server.")
		os.Exit(0)
	}()

	stdin := bufio.NewScanner(os.Stdin)
	for stdin.Scan() {
		line := stdin.Text()
		// The sentinel is client-local: it ends this client without being sent.
		if strings.EqualFold(line, "exit") {
			break
		}
		if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
			slog.Error("Write failed", "error", err)
			break
		}
	}
}

func dial(ctx context.Context, addr string) (net.Conn, error) {
	policy := retry.Policy{
		MaxAttempts:    5,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			slog.Warn("Connection attempt failed, retrying",
				"attempt", attempt,
				"error", err,
				"backoff", backoff,
			)
		},
	}

	return retry.Do(ctx, policy, nil, func() (net.Conn, error) {
		return net.DialTimeout("tcp", addr, 5*time.Second)
	})
}
