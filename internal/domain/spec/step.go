// Package spec holds the provisioning document model and its loader.
package spec

import (
	"fmt"
	"time"
)

// DefaultTimeout applies to steps that do not declare their own.
const DefaultTimeout = 5 * time.Minute

// Step is one declared provisioning action with explicit pre/postconditions.
// Steps execute in document order; later steps may depend on the artifacts
// earlier ones leave behind.
type Step struct {
	ID             StepID
	Description    string
	Command        []string
	Env            []string
	Preconditions  []Check
	Postconditions []Check
	Retryable      bool
	MaxRetries     int
	Timeout        time.Duration
}

// Validate ensures the step is internally consistent.
func (s Step) Validate() error {
	if s.ID.IsZero() {
		return ErrEmptyStepID
	}
	if len(s.Command) == 0 {
		return fmt.Errorf("step %s: command cannot be empty", s.ID)
	}
	if s.MaxRetries < 0 {
		return fmt.Errorf("step %s: max_retries cannot be negative", s.ID)
	}
	if s.MaxRetries > 0 && !s.Retryable {
		return fmt.Errorf("step %s: max_retries set but step is not retryable", s.ID)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("step %s: timeout cannot be negative", s.ID)
	}
	for _, c := range s.Preconditions {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("step %s: precondition: %w", s.ID, err)
		}
	}
	for _, c := range s.Postconditions {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("step %s: postcondition: %w", s.ID, err)
		}
	}
	return nil
}

// MaxAttempts returns the total number of execution attempts allowed.
func (s Step) MaxAttempts() int {
	if !s.Retryable {
		return 1
	}
	return s.MaxRetries + 1
}

// EffectiveTimeout returns the step timeout, falling back to the default.
func (s Step) EffectiveTimeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return DefaultTimeout
}
