package schedule

import (
	"sync"
	"time"
)

// Execution records one run of a scheduled job: timing, outcome, and
// how many observations survived validation. The scheduler keeps a
// bounded in-memory history for debugging and monitoring; durable
// execution history is outside this module's storage boundary.
type Execution struct {
	ID           string     `json:"id"`
	JobID        string     `json:"job_id"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	DurationMs   int        `json:"duration_ms"`
	Observations int        `json:"observations"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// Execution status constants for type safety
const (
	ExecutionStatusCompleted = "completed"
	ExecutionStatusFailed    = "failed"
)

// maxExecutionHistory bounds the in-memory execution log.
const maxExecutionHistory = 50

// executionLog is a bounded, newest-last history of executions.
type executionLog struct {
	mu      sync.Mutex
	entries []Execution
}

func (l *executionLog) append(e Execution) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, e)
	if len(l.entries) > maxExecutionHistory {
		l.entries = l.entries[len(l.entries)-maxExecutionHistory:]
	}
}

func (l *executionLog) snapshot() []Execution {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Execution, len(l.entries))
	copy(out, l.entries)
	return out
}
