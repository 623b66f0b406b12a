package models

import (
	"fmt"
	"time"
)

// Run exit states.
const (
	RunStateRunning  = "running"
	RunStateFinished = "finished"
	RunStateAborted  = "aborted"
)

// Run is one sync run observed in the log stream, bounded by a run:start
// event and (when the stream lives long enough) a run:done event.
type Run struct {
	id        string
	createdAt time.Time
	updatedAt time.Time

	Sequence   int
	RunID      string // backend run identifier; generated when the backend omits one
	DryRun     bool
	Conflict   string
	Added      int
	Removed    int
	Pairs      int
	ExitState  string
	StartedAt  time.Time
	FinishedAt time.Time
}

var _ Model = (*Run)(nil)

// NewRun creates a running Run observed at started.
func NewRun(runID string, dryRun bool, conflict string, started time.Time) *Run {
	return &Run{
		RunID:     runID,
		DryRun:    dryRun,
		Conflict:  conflict,
		ExitState: RunStateRunning,
		StartedAt: started,
	}
}

func (r *Run) ID() string           { return r.id }
func (r *Run) CreatedAt() time.Time { return r.createdAt }
func (r *Run) UpdatedAt() time.Time { return r.updatedAt }

// SetID assigns the storage identifier; called by the repository on create.
func (r *Run) SetID(id string) { r.id = id }

// SetTimestamps assigns lifecycle timestamps; called by the repository.
func (r *Run) SetTimestamps(created, updated time.Time) {
	r.createdAt = created
	r.updatedAt = updated
}

// Finish records run:done totals and marks the run finished.
func (r *Run) Finish(added, removed, pairs int, finished time.Time) {
	r.Added = added
	r.Removed = removed
	r.Pairs = pairs
	r.ExitState = RunStateFinished
	r.FinishedAt = finished
}

// Validate checks invariants before persistence.
func (r *Run) Validate() error {
	if r.RunID == "" {
		return fmt.Errorf("run_id is required")
	}
	if r.StartedAt.IsZero() {
		return fmt.Errorf("started_at is required")
	}
	switch r.ExitState {
	case RunStateRunning, RunStateFinished, RunStateAborted:
	default:
		return fmt.Errorf("invalid exit state %q", r.ExitState)
	}
	return nil
}
