package relay

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionLimiter_Bounds(t *testing.T) {
	l := NewConnectionLimiter(2)

	assert.True(t, l.Acquire())
	assert.True(t, l.Acquire())
	assert.False(t, l.Acquire(), "third acquire must fail at capacity")
	assert.Equal(t, int64(2), l.Current())

	l.Release()
	assert.True(t, l.Acquire())
}

func TestConnectionLimiter_ReleaseFreesSlot(t *testing.T) {
	l := NewConnectionLimiter(1)

	assert.True(t, l.Acquire())
	l.Release()
	assert.Equal(t, int64(0), l.Current())
	assert.True(t, l.Acquire())
}

func TestConnectionLimiter_Concurrent(t *testing.T) {
	const max = 10
	l := NewConnectionLimiter(max)

	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Acquire() {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, max, acquired)
	assert.Equal(t, int64(max), l.Current())

	for i := 0; i < max; i++ {
		l.Release()
	}
	assert.Equal(t, int64(0), l.Current())
}
