package broadcast

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientWriter_DeliversLinesInOrder(t *testing.T) {
	sink := &recordingSink{}
	cw := newClientWriter(sink, 16)
	t.Cleanup(cw.stop)

	require.True(t, cw.enqueue("a"))
	require.True(t, cw.enqueue("b"))
	require.True(t, cw.enqueue("c"))

	require.Eventually(t, func() bool {
		return len(sink.snapshot()) == 3
	}, waitFor, tick)
	assert.Equal(t, []string{"a", "b", "c"}, sink.snapshot())
}

func TestClientWriter_EnqueueFailsWhenBufferFull(t *testing.T) {
	sink := newBlockingSink()
	cw := newClientWriter(sink, 1)
	t.Cleanup(cw.stop)

	require.True(t, cw.enqueue("first"))

	// The writer goroutine is wedged in WriteLine; once the one-slot buffer
	// holds a pending line, further enqueues must be rejected.
	require.Eventually(t, func() bool {
		return !cw.enqueue("overflow")
	}, waitFor, tick)
}

func TestClientWriter_WriteFailureClosesSink(t *testing.T) {
	sink := &recordingSink{writeErr: errors.New("broken pipe")}
	cw := newClientWriter(sink, 4)
	t.Cleanup(cw.stop)

	require.True(t, cw.enqueue("doomed"))

	require.Eventually(t, sink.isClosed, waitFor, tick)
	assert.Empty(t, sink.snapshot())
}

func TestClientWriter_StopIsIdempotent(t *testing.T) {
	sink := &recordingSink{}
	cw := newClientWriter(sink, 4)

	done := make(chan struct{})
	go func() {
		cw.stop()
		cw.stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("stop did not return")
	}
	assert.True(t, sink.isClosed())
}

func TestClientWriter_StopUnblocksStalledWrite(t *testing.T) {
	sink := newBlockingSink()
	cw := newClientWriter(sink, 1)

	require.True(t, cw.enqueue("stalls"))

	done := make(chan struct{})
	go func() {
		cw.stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("stop did not unblock the stalled write")
	}
}
