// Package run defines the journal record kept for each PerformAction call.
package run

import (
	"fmt"
	"time"
)

// Status is the final status of a run.
type Status string

const (
	StatusRunning    Status = "running"
	StatusTerminated Status = "terminated"
	StatusExhausted  Status = "exhausted"
	StatusFailed     Status = "failed"
)

// Run is an audit record of one objective pursued by the agent.
// It is written for operators and never read back by the action loop.
type Run struct {
	// ID is the unique identifier (UUID)
	ID string

	// AgentID identifies the agent instance that executed the run
	AgentID string

	// Objective is the natural-language goal
	Objective string

	// Status is the final state of the run
	Status Status

	// Outcome is the message returned to the caller
	Outcome string

	// Error is the failure cause when Status is StatusFailed
	Error string

	// Steps records one entry per executed tick
	Steps []Step

	StartedAt  time.Time
	FinishedAt time.Time
}

// Step records a single tick of a run.
type Step struct {
	Tick    int
	Action  string
	Target  string
	Content string
	Result  string
}

// Ticks returns the number of recorded steps.
func (r *Run) Ticks() int {
	return len(r.Steps)
}

// Duration returns how long the run took, or zero if it has not finished.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary returns a one-line description of the run.
func (r *Run) Summary() string {
	return fmt.Sprintf("%s [%s] %d ticks: %s", r.ID, r.Status, r.Ticks(), r.Objective)
}

// Clone creates a deep copy of the run.
func (r *Run) Clone() *Run {
	clone := *r
	if len(r.Steps) > 0 {
		clone.Steps = make([]Step, len(r.Steps))
		copy(clone.Steps, r.Steps)
	}
	return &clone
}
