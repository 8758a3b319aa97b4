// Package status is the shared runtime-health surface for collectors
// and the scheduler: a running flag, a rolling success rate, and a
// bounded log of the most recent errors, exposed uniformly as
// snapshots.
package status

import (
	"sync"
	"time"
)

// MaxRecentErrors bounds the per-tracker error log.
const MaxRecentErrors = 10

// Entry is one recorded failure with optional supplier/ingredient
// context. Entries are append-only and trimmed to the most recent
// MaxRecentErrors.
type Entry struct {
	Timestamp    time.Time `json:"timestamp"`
	Message      string    `json:"message"`
	SupplierID   string    `json:"supplier_id,omitempty"`
	IngredientID string    `json:"ingredient_id,omitempty"`
	Detail       string    `json:"detail,omitempty"` // Stack or wrapped-cause detail
}

// Snapshot is a point-in-time copy of a tracker's state. Safe to hand
// to external callers; mutating it has no effect on the tracker.
type Snapshot struct {
	Running       bool    `json:"running"`
	SuccessRate   float64 `json:"success_rate"`
	Attempts      int64   `json:"attempts"`
	ErrorCount    int64   `json:"error_count"`
	RejectedCount int64   `json:"rejected_count"`
	RecentErrors  []Entry `json:"recent_errors"`
}

// Tracker accumulates attempt outcomes for one collector or scheduler
// instance. A tracker has a single owning writer; snapshots may be read
// from any goroutine.
type Tracker struct {
	mu            sync.Mutex
	running       bool
	successRate   float64
	attempts      int64
	errorCount    int64
	rejectedCount int64
	recent        []Entry
	timeNow       func() time.Time // Injectable for testing
}

// NewTracker creates a tracker using real time.
func NewTracker() *Tracker {
	return NewTrackerWithClock(time.Now)
}

// NewTrackerWithClock creates a tracker with an injectable clock (for testing).
func NewTrackerWithClock(timeNow func() time.Time) *Tracker {
	return &Tracker{timeNow: timeNow}
}

// SetRunning flips the is-running flag.
func (t *Tracker) SetRunning(running bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = running
}

// RecordSuccess records one successful attempt.
func (t *Tracker) RecordSuccess() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recordAttempt(1.0)
}

// RecordError records one failed attempt and appends an entry to the
// bounded error log. supplierID and ingredientID may be empty when the
// failure has no such context.
func (t *Tracker) RecordError(err error, supplierID, ingredientID string) {
	if err == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.recordAttempt(0.0)
	t.errorCount++

	t.recent = append(t.recent, Entry{
		Timestamp:    t.timeNow(),
		Message:      err.Error(),
		SupplierID:   supplierID,
		IngredientID: ingredientID,
	})
	if len(t.recent) > MaxRecentErrors {
		t.recent = t.recent[len(t.recent)-MaxRecentErrors:]
	}
}

// RecordRejected adds to the validator-reject counter. Rejects are not
// attempts; they do not move the success rate.
func (t *Tracker) RecordRejected(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rejectedCount += int64(n)
}

// recordAttempt folds one outcome (1.0 success, 0.0 failure) into the
// rolling success rate. The weight of each new attempt is 1/attempts up
// to a window of 20, so early attempts converge fast and a long-running
// collector still reacts to recent outcomes. Callers hold t.mu.
func (t *Tracker) recordAttempt(outcome float64) {
	t.attempts++
	window := t.attempts
	if window > 20 {
		window = 20
	}
	t.successRate += (outcome - t.successRate) / float64(window)
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	recent := make([]Entry, len(t.recent))
	copy(recent, t.recent)

	return Snapshot{
		Running:       t.running,
		SuccessRate:   t.successRate,
		Attempts:      t.attempts,
		ErrorCount:    t.errorCount,
		RejectedCount: t.rejectedCount,
		RecentErrors:  recent,
	}
}
