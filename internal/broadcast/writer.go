package broadcast

import (
	"sync"

	"github.com/wqy-jstart/Socket-Chat/internal/metrics"
)

// LineWriter is the broadcaster's view of one client: write one line, close
// the underlying transport. Implementations live with the transport that owns
// the connection (TCP session, WebSocket bridge).
type LineWriter interface {
	WriteLine(line string) error
	Close() error
}

// clientWriter drains a session's send buffer onto its LineWriter.
// A write failure closes the underlying transport so the owning session tears
// itself down through its normal disconnect path; the remaining recipients of
// the broadcast are unaffected.
type clientWriter struct {
	sink     LineWriter
	sendCh   chan string
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newClientWriter(sink LineWriter, bufSize int) *clientWriter {
	cw := &clientWriter{
		sink:   sink,
		sendCh: make(chan string, bufSize),
		done:   make(chan struct{}),
	}
	cw.wg.Add(1)
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	defer cw.wg.Done()

	for {
		select {
		case line := <-cw.sendCh:
			if err := cw.sink.WriteLine(line); err != nil {
				metrics.RecipientWriteFailures.Inc()
				_ = cw.sink.Close()
				return
			}
		case <-cw.done:
			return
		}
	}
}

// enqueue offers a line without blocking. False means the buffer is full.
func (cw *clientWriter) enqueue(line string) bool {
	select {
	case cw.sendCh <- line:
		return true
	default:
		return false
	}
}

// stop closes the sink first so an in-flight write unblocks, then waits for
// the writer goroutine to exit. Safe to call more than once.
func (cw *clientWriter) stop() {
	cw.stopOnce.Do(func() {
		close(cw.done)
		_ = cw.sink.Close()
	})
	cw.wg.Wait()
}
