package collect

import (
	"context"
	"sync"
	"time"

	"github.com/foodcost/pricefeed/errors"
)

// Pacer enforces max calls per time window using a sliding window, so a
// collector cannot overwhelm a single source. A nil *Pacer admits every
// call, which keeps pacing optional at call sites.
type Pacer struct {
	maxCallsPerMinute int
	window            time.Duration
	mu                sync.Mutex
	callTimes         []time.Time
	timeNow           func() time.Time // Injectable for testing
}

// NewPacer creates a pacer with real time. maxCallsPerMinute <= 0
// returns nil (no pacing).
func NewPacer(maxCallsPerMinute int) *Pacer {
	return NewPacerWithClock(maxCallsPerMinute, time.Now)
}

// NewPacerWithClock creates a pacer with an injectable clock (for testing).
func NewPacerWithClock(maxCallsPerMinute int, timeNow func() time.Time) *Pacer {
	if maxCallsPerMinute <= 0 {
		return nil
	}
	return &Pacer{
		maxCallsPerMinute: maxCallsPerMinute,
		window:            60 * time.Second,
		callTimes:         make([]time.Time, 0, maxCallsPerMinute),
		timeNow:           timeNow,
	}
}

// Allow checks if a call is admitted under the window limit, recording
// it when admitted. Returns an error when the window is full.
func (p *Pacer) Allow() error {
	if p == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.timeNow()
	p.removeExpired(now)

	if len(p.callTimes) >= p.maxCallsPerMinute {
		return errors.Newf("source rate limit exceeded: %d calls in window (limit %d)",
			len(p.callTimes), p.maxCallsPerMinute)
	}

	p.callTimes = append(p.callTimes, now)
	return nil
}

// Wait blocks until a call is admitted or the context is cancelled.
// The wait is sized from the oldest call in the window, so callers
// resume as soon as capacity actually frees.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}

	for {
		if err := p.Allow(); err == nil {
			return nil
		}

		delay := p.retryDelay()
		if delay <= 0 {
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Wrap(ctx.Err(), "pacer wait cancelled")
		case <-timer.C:
		}
	}
}

// retryDelay reports how long until the oldest recorded call slides out
// of the window. Zero means capacity is already free.
func (p *Pacer) retryDelay() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.timeNow()
	p.removeExpired(now)
	if len(p.callTimes) < p.maxCallsPerMinute {
		return 0
	}
	return p.callTimes[0].Add(p.window).Sub(now)
}

// removeExpired drops call timestamps older than the window. Callers
// hold p.mu.
func (p *Pacer) removeExpired(now time.Time) {
	cutoff := now.Add(-p.window)
	kept := p.callTimes[:0]
	for _, t := range p.callTimes {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	p.callTimes = kept
}
