// Package schedule drives recurring price-collection jobs: a registry
// of named schedules, each binding one collector kind to a cadence and
// a target set of suppliers and ingredients.
package schedule

import (
	"time"

	"github.com/foodcost/pricefeed/market"
	"github.com/foodcost/pricefeed/status"
)

// Spec is a scheduling request.
type Spec struct {
	// Name is the job's display name.
	Name string

	// Cadence is a shorthand expression; see ParseCadence. An
	// unrecognized expression falls back to hourly with a logged
	// warning rather than an error.
	Cadence string

	// SupplierIDs / IngredientIDs narrow the job's targets. Empty
	// means all active records at execution time.
	SupplierIDs   []string
	IngredientIDs []string
}

// Job is one registered schedule. Copies returned by Schedules() are
// snapshots; the scheduler owns the live record.
type Job struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Source        market.SourceKind `json:"source"`
	CadenceExpr   string            `json:"cadence"`
	SupplierIDs   []string          `json:"supplier_ids,omitempty"`
	IngredientIDs []string          `json:"ingredient_ids,omitempty"`
	Active        bool              `json:"active"`
	Running       bool              `json:"running"` // Transient, true while an execution is in flight
	LastRunAt     *time.Time        `json:"last_run_at,omitempty"`
	NextRunAt     time.Time         `json:"next_run_at"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Stats summarizes the scheduler's registry and recent failures.
type Stats struct {
	TotalSchedules   int `json:"total_schedules"`
	ActiveSchedules  int `json:"active_schedules"`
	RunningSchedules int `json:"running_schedules"`

	// RecentErrors is the scheduler's own bounded error log; collector
	// errors live in each collector's status.
	RecentErrors []status.Entry `json:"recent_errors"`
}
