package execution

import (
	"time"

	"github.com/provisionkit/provision/internal/domain/spec"
)

// Attempt records a single try at executing a step's command.
type Attempt struct {
	Number   int
	Outcome  AttemptOutcome
	Err      error
	Duration time.Duration
}

// Result captures the finalized outcome of one step in a run.
// Immutable once created.
type Result struct {
	stepID   spec.StepID
	status   StepStatus
	attempts []Attempt
	err      error
	duration time.Duration
}

// NewResult creates a new Result.
func NewResult(stepID spec.StepID, status StepStatus, err error) Result {
	return Result{
		stepID: stepID,
		status: status,
		err:    err,
	}
}

// StepID returns the id of the step this result belongs to.
func (r Result) StepID() spec.StepID {
	return r.stepID
}

// Status returns the final status of the step.
func (r Result) Status() StepStatus {
	return r.status
}

// Attempts returns the per-attempt records, in order.
func (r Result) Attempts() []Attempt {
	return r.attempts
}

// AttemptCount returns how many times the command was tried.
func (r Result) AttemptCount() int {
	return len(r.attempts)
}

// Error returns the final error, if the step failed.
func (r Result) Error() error {
	return r.err
}

// Duration returns the total time spent on the step across attempts.
func (r Result) Duration() time.Duration {
	return r.duration
}

// Succeeded returns true if the step completed successfully.
func (r Result) Succeeded() bool {
	return r.status == StatusSucceeded
}

// Skipped returns true if the step was skipped.
func (r Result) Skipped() bool {
	return r.status == StatusSkipped
}

// WithAttempts returns a copy with attempt records set.
func (r Result) WithAttempts(attempts []Attempt) Result {
	r.attempts = attempts
	return r
}

// WithDuration returns a copy with the total duration set.
func (r Result) WithDuration(d time.Duration) Result {
	r.duration = d
	return r
}
