package execution

import (
	"time"

	"github.com/google/uuid"
)

// Run is the record of one execution of a provisioning document.
// It is created when the executor starts, appended to as steps finish,
// finalized exactly once, and immutable thereafter.
type Run struct {
	id         uuid.UUID
	results    []Result
	status     RunStatus
	startedAt  time.Time
	finishedAt time.Time
	finalized  bool
}

// NewRun creates a Run in progress.
func NewRun() *Run {
	return &Run{
		id:        uuid.New(),
		startedAt: time.Now(),
	}
}

// ID returns the unique run identifier.
func (r *Run) ID() uuid.UUID {
	return r.id
}

// Results returns the finalized step results, in execution order.
func (r *Run) Results() []Result {
	return r.results
}

// Status returns the overall run status. Only meaningful after Finalize.
func (r *Run) Status() RunStatus {
	return r.status
}

// StartedAt returns when the run began.
func (r *Run) StartedAt() time.Time {
	return r.startedAt
}

// FinishedAt returns when the run was finalized.
func (r *Run) FinishedAt() time.Time {
	return r.finishedAt
}

// Duration returns the total wall-clock duration of the run.
func (r *Run) Duration() time.Duration {
	if r.finishedAt.IsZero() {
		return time.Since(r.startedAt)
	}
	return r.finishedAt.Sub(r.startedAt)
}

// Append records a step result. No-op after finalization.
func (r *Run) Append(result Result) {
	if r.finalized {
		return
	}
	r.results = append(r.results, result)
}

// Finalize seals the run with its overall status. Idempotent.
func (r *Run) Finalize(status RunStatus) {
	if r.finalized {
		return
	}
	r.status = status
	r.finishedAt = time.Now()
	r.finalized = true
}
