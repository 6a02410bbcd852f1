// Package execution runs provisioning documents step by step.
package execution

// StepStatus represents the final state of an executed step.
type StepStatus string

const (
	// StatusSkipped indicates every precondition was already satisfied.
	StatusSkipped StepStatus = "skipped"
	// StatusSucceeded indicates the step ran and its postconditions held.
	StatusSucceeded StepStatus = "succeeded"
	// StatusFailed indicates the step failed after exhausting its attempts.
	StatusFailed StepStatus = "failed"
	// StatusCancelled indicates the run was aborted while this step was due.
	StatusCancelled StepStatus = "cancelled"
)

// String returns the string representation of the status.
func (s StepStatus) String() string {
	return string(s)
}

// AttemptOutcome classifies a single execution attempt.
type AttemptOutcome string

const (
	// OutcomeSucceeded indicates the attempt completed successfully.
	OutcomeSucceeded AttemptOutcome = "succeeded"
	// OutcomeRetried indicates the attempt failed and another followed.
	OutcomeRetried AttemptOutcome = "retried"
	// OutcomeFailed indicates the attempt failed with no attempts left.
	OutcomeFailed AttemptOutcome = "failed"
)

// RunStatus represents the overall state of a run.
type RunStatus string

const (
	// RunSuccess indicates every step succeeded or was skipped.
	RunSuccess RunStatus = "success"
	// RunPartialFailure indicates failures occurred under --continue-on-error.
	RunPartialFailure RunStatus = "partial-failure"
	// RunFatal indicates a step failure halted the run.
	RunFatal RunStatus = "fatal"
	// RunCancelled indicates the run was aborted by an external signal.
	RunCancelled RunStatus = "cancelled"
)

// String returns the string representation of the status.
func (s RunStatus) String() string {
	return string(s)
}

// Succeeded returns true for a fully successful run.
func (s RunStatus) Succeeded() bool {
	return s == RunSuccess
}
