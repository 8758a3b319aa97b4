package collect

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClock allows controlling time in tests
type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock(now time.Time) *mockClock {
	return &mockClock{now: now}
}

func (m *mockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *mockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func TestPacer_UnderLimit(t *testing.T) {
	clock := newMockClock(time.Now())
	pacer := NewPacerWithClock(10, clock.Now)

	for i := 0; i < 5; i++ {
		require.NoError(t, pacer.Allow(), "call %d", i+1)
		clock.Advance(1 * time.Second)
	}
}

func TestPacer_AtLimit(t *testing.T) {
	clock := newMockClock(time.Now())
	pacer := NewPacerWithClock(10, clock.Now)

	for i := 0; i < 10; i++ {
		require.NoError(t, pacer.Allow(), "call %d", i+1)
	}
	assert.Error(t, pacer.Allow())
}

func TestPacer_WindowSlides(t *testing.T) {
	clock := newMockClock(time.Now())
	pacer := NewPacerWithClock(2, clock.Now)

	require.NoError(t, pacer.Allow())
	require.NoError(t, pacer.Allow())
	assert.Error(t, pacer.Allow())

	// After the window passes, capacity frees up again.
	clock.Advance(61 * time.Second)
	assert.NoError(t, pacer.Allow())
}

func TestPacer_RetryDelayTracksOldestCall(t *testing.T) {
	clock := newMockClock(time.Now())
	pacer := NewPacerWithClock(2, clock.Now)

	require.NoError(t, pacer.Allow())
	clock.Advance(10 * time.Second)
	require.NoError(t, pacer.Allow())

	// Window is full; the oldest call frees capacity in 50s, not a
	// full window from now.
	assert.Equal(t, 50*time.Second, pacer.retryDelay())

	clock.Advance(45 * time.Second)
	assert.Equal(t, 5*time.Second, pacer.retryDelay())

	// Once the oldest call slides out, there is nothing to wait for.
	clock.Advance(6 * time.Second)
	assert.Zero(t, pacer.retryDelay())
	assert.NoError(t, pacer.Allow())
}

func TestPacer_WaitCancelled(t *testing.T) {
	clock := newMockClock(time.Now())
	pacer := NewPacerWithClock(1, clock.Now)
	require.NoError(t, pacer.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := pacer.Wait(ctx)
	require.Error(t, err)
	// Wait slept on the timer, not a fixed 1s poll.
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestPacer_NilAdmitsEverything(t *testing.T) {
	var pacer *Pacer
	for i := 0; i < 100; i++ {
		assert.NoError(t, pacer.Allow())
	}

	assert.Nil(t, NewPacer(0))
}
