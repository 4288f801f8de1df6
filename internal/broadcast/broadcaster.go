package broadcast

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/wqy-jstart/Socket-Chat/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
	cmdBufferSize  = 256
)

// ErrStopped is returned when an operation is attempted on a stopped Broadcaster.
var ErrStopped = errors.New("broadcaster stopped")

// broadcasterCmd is the command interface for the Broadcaster actor.
type broadcasterCmd interface{ isBroadcasterCmd() }

type baseBroadcasterCmd struct{}

func (baseBroadcasterCmd) isBroadcasterCmd() {}

type joinCmd struct {
	baseBroadcasterCmd
	sink    LineWriter
	replyCh chan uuid.UUID
}

type leaveCmd struct {
	baseBroadcasterCmd
	id    uuid.UUID
	ackCh chan struct{}
}

type broadcastCmd struct {
	baseBroadcasterCmd
	line    string
	exclude uuid.UUID // uuid.Nil means no exclusion
}

type lenCmd struct {
	baseBroadcasterCmd
	replyCh chan int
}

type stopCmd struct{ baseBroadcasterCmd }

// Broadcaster owns the registry of live session writers and serializes all
// registry access through a single actor goroutine.
type Broadcaster struct {
	cmdCh   chan broadcasterCmd
	clock   clockwork.Clock
	clients map[uuid.UUID]*clientWriter
	bufSize int
	done    chan struct{}
}

// New creates a broadcaster and starts its actor goroutine.
// sendBufferSize is the per-session outbound buffer; a session whose buffer
// fills up is evicted rather than allowed to stall the fan-out.
func New(clock clockwork.Clock, sendBufferSize int) *Broadcaster {
	b := &Broadcaster{
		cmdCh:   make(chan broadcasterCmd, cmdBufferSize),
		clock:   clock,
		clients: make(map[uuid.UUID]*clientWriter),
		bufSize: sendBufferSize,
		done:    make(chan struct{}),
	}
	go b.run()
	return b
}

// Join registers a sink and returns its session id. The sink is eligible to
// receive broadcasts the instant Join returns.
func (b *Broadcaster) Join(sink LineWriter) (uuid.UUID, error) {
	replyCh := make(chan uuid.UUID, 1)
	if err := b.send(joinCmd{sink: sink, replyCh: replyCh}); err != nil {
		return uuid.Nil, err
	}

	timer := b.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case id := <-replyCh:
		return id, nil
	case <-b.done:
		return uuid.Nil, ErrStopped
	case <-timer.Chan():
		return uuid.Nil, fmt.Errorf("join command timed out after %v", commandTimeout)
	}
}

// Leave removes the session from the registry and stops its writer.
// Idempotent: leaving twice, or with an unknown id, is a no-op. Once Leave
// returns, no broadcast started afterwards can observe the removed sink.
func (b *Broadcaster) Leave(id uuid.UUID) {
	ackCh := make(chan struct{})
	if err := b.send(leaveCmd{id: id, ackCh: ackCh}); err != nil {
		return
	}

	timer := b.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case <-ackCh:
	case <-b.done:
	case <-timer.Chan():
		slog.Warn("Leave command timed out", "session_id", id.String(), "timeout", commandTimeout)
	}
}

// Broadcast queues line for delivery to every registered session, the sender
// included if it is registered.
func (b *Broadcaster) Broadcast(line string) {
	_ = b.send(broadcastCmd{line: line})
}

// BroadcastExcept queues line for delivery to every registered session except sender.
func (b *Broadcaster) BroadcastExcept(line string, sender uuid.UUID) {
	_ = b.send(broadcastCmd{line: line, exclude: sender})
}

// Len returns the current registry size, or 0 if the broadcaster is stopped.
func (b *Broadcaster) Len() int {
	replyCh := make(chan int, 1)
	if err := b.send(lenCmd{replyCh: replyCh}); err != nil {
		return 0
	}

	timer := b.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case n := <-replyCh:
		return n
	case <-b.done:
		return 0
	case <-timer.Chan():
		slog.Warn("Len command timed out", "timeout", commandTimeout)
		return 0
	}
}

// Stop shuts down the broadcaster, closing every registered sink.
// Blocks until the actor goroutine has exited or the stop timeout is reached.
func (b *Broadcaster) Stop() {
	if err := b.send(stopCmd{}); err != nil {
		return
	}

	timer := b.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-b.done:
		slog.Info("Broadcaster stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Broadcaster stop timeout exceeded", "timeout", stopTimeout)
	}
}

func (b *Broadcaster) send(cmd broadcasterCmd) error {
	select {
	case b.cmdCh <- cmd:
		return nil
	case <-b.done:
		return ErrStopped
	}
}

func (b *Broadcaster) run() {
	defer close(b.done)

	for cmd := range b.cmdCh {
		switch c := cmd.(type) {
		case joinCmd:
			b.handleJoin(c)
		case leaveCmd:
			b.handleLeave(c)
		case broadcastCmd:
			b.handleBroadcast(c)
		case lenCmd:
			c.replyCh <- len(b.clients)
		case stopCmd:
			b.handleStop()
			return
		default:
			slog.Warn("Broadcaster received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (b *Broadcaster) handleJoin(c joinCmd) {
	id := uuid.New()
	b.clients[id] = newClientWriter(c.sink, b.bufSize)

	metrics.ActiveSessions.Set(float64(len(b.clients)))
	metrics.SessionsJoinedTotal.Inc()

	slog.Debug("Session joined", "session_id", id.String(), "total_sessions", len(b.clients))
	c.replyCh <- id
}

func (b *Broadcaster) handleLeave(c leaveCmd) {
	defer close(c.ackCh)

	cw, exists := b.clients[c.id]
	if !exists {
		return
	}

	b.remove(c.id, cw)
	slog.Debug("Session left", "session_id", c.id.String(), "total_sessions", len(b.clients))
}

func (b *Broadcaster) handleBroadcast(c broadcastCmd) {
	recipients := 0
	var slow []uuid.UUID
	for id, cw := range b.clients {
		if c.exclude != uuid.Nil && id == c.exclude {
			continue
		}
		recipients++
		if !cw.enqueue(c.line) {
			slow = append(slow, id)
		}
	}

	for _, id := range slow {
		slog.Warn("Evicting slow session", "session_id", id.String())
		metrics.SlowClientsEvicted.Inc()
		b.remove(id, b.clients[id])
	}

	metrics.LinesRelayedTotal.Inc()
	metrics.BroadcastFanout.Observe(float64(recipients))
}

func (b *Broadcaster) handleStop() {
	slog.Info("Broadcaster shutting down", "total_sessions", len(b.clients))

	for id, cw := range b.clients {
		cw.stop()
		delete(b.clients, id)
	}
	metrics.ActiveSessions.Set(0)
}

func (b *Broadcaster) remove(id uuid.UUID, cw *clientWriter) {
	cw.stop()
	delete(b.clients, id)

	metrics.ActiveSessions.Set(float64(len(b.clients)))
	metrics.SessionsLeftTotal.Inc()
}
