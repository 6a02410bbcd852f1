package execution

import (
	"fmt"
	"time"

	"github.com/provisionkit/provision/internal/domain/checks"
	"github.com/provisionkit/provision/internal/domain/spec"
)

// StepTimeoutError indicates a step's command exceeded its timeout.
type StepTimeoutError struct {
	StepID  spec.StepID
	Timeout time.Duration
}

// Error returns the formatted error message.
func (e *StepTimeoutError) Error() string {
	return fmt.Sprintf("step %s timed out after %s", e.StepID, e.Timeout)
}

// StepExecutionError indicates a step's command exited non-zero.
type StepExecutionError struct {
	StepID   spec.StepID
	ExitCode int
	Stderr   string
}

// Error returns the formatted error message.
func (e *StepExecutionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("step %s exited with code %d: %s", e.StepID, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("step %s exited with code %d", e.StepID, e.ExitCode)
}

// PostconditionError indicates a step's command succeeded but a declared
// postcondition did not hold afterwards.
type PostconditionError struct {
	StepID spec.StepID
	Unmet  []checks.Result
}

// Error returns the formatted error message.
func (e *PostconditionError) Error() string {
	if len(e.Unmet) == 1 {
		return fmt.Sprintf("step %s: postcondition unmet: %s (%s)",
			e.StepID, e.Unmet[0].Check, e.Unmet[0].Reason)
	}
	return fmt.Sprintf("step %s: %d postconditions unmet", e.StepID, len(e.Unmet))
}

// StepFailedError wraps the final error of a failed step with run context.
// It is what the CLI surfaces for a fatal run.
type StepFailedError struct {
	StepID   spec.StepID
	Attempts int
	Cause    error
}

// Error returns the formatted error message.
func (e *StepFailedError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("step %s failed after %d attempts: %v", e.StepID, e.Attempts, e.Cause)
	}
	return fmt.Sprintf("step %s failed: %v", e.StepID, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *StepFailedError) Unwrap() error {
	return e.Cause
}
