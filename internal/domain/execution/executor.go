package execution

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/provisionkit/provision/internal/domain/checks"
	"github.com/provisionkit/provision/internal/domain/spec"
	"github.com/provisionkit/provision/internal/ports"
)

// defaultBackoffBase is the first retry delay; it doubles per attempt.
const defaultBackoffBase = time.Second

// Executor runs the steps of a provisioning document in order.
//
// Steps whose preconditions already hold are skipped, failures halt the run
// (fail-fast) unless continue-on-error is set, and retryable steps back off
// exponentially between attempts.
type Executor struct {
	runner          ports.CommandRunner
	evaluator       *checks.Evaluator
	logger          ports.Logger
	continueOnError bool
	backoffBase     time.Duration
}

// NewExecutor creates a new Executor.
func NewExecutor(runner ports.CommandRunner, evaluator *checks.Evaluator, logger ports.Logger) *Executor {
	return &Executor{
		runner:      runner,
		evaluator:   evaluator,
		logger:      logger,
		backoffBase: defaultBackoffBase,
	}
}

// WithContinueOnError returns an Executor that records failures and keeps
// going instead of halting. The run finalizes as partial-failure.
func (e *Executor) WithContinueOnError(enabled bool) *Executor {
	clone := *e
	clone.continueOnError = enabled
	return &clone
}

// WithBackoffBase returns an Executor with a different initial retry delay.
func (e *Executor) WithBackoffBase(d time.Duration) *Executor {
	clone := *e
	clone.backoffBase = d
	return &clone
}

// log returns the logger attached to the context, falling back to the
// executor's own.
func (e *Executor) log(ctx context.Context) ports.Logger {
	if logger := ports.LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return e.logger
}

// Execute runs every step of the document in order and returns the
// finalized Run. Later steps are assumed to depend on earlier ones, so a
// fatal failure leaves the remaining steps unexecuted and unrecorded.
func (e *Executor) Execute(ctx context.Context, doc *spec.Document) *Run {
	run := NewRun()
	anyFailed := false

	for _, step := range doc.Steps {
		if ctx.Err() != nil {
			run.Append(NewResult(step.ID, StatusCancelled, ctx.Err()))
			run.Finalize(RunCancelled)
			return run
		}

		result := e.executeStep(ctx, step)
		run.Append(result)

		switch result.Status() {
		case StatusCancelled:
			run.Finalize(RunCancelled)
			return run
		case StatusFailed:
			e.log(ctx).Error(ctx, "step failed",
				ports.F("step", step.ID.String()),
				ports.F("attempts", result.AttemptCount()),
				ports.F("error", result.Error()))
			if !e.continueOnError {
				run.Finalize(RunFatal)
				return run
			}
			anyFailed = true
		case StatusSkipped:
			e.log(ctx).Info(ctx, "step skipped: preconditions already satisfied",
				ports.F("step", step.ID.String()))
		case StatusSucceeded:
			e.log(ctx).Info(ctx, "step succeeded",
				ports.F("step", step.ID.String()),
				ports.F("attempts", result.AttemptCount()),
				ports.F("duration", result.Duration().Round(time.Millisecond)))
		}
	}

	if anyFailed {
		run.Finalize(RunPartialFailure)
	} else {
		run.Finalize(RunSuccess)
	}
	return run
}

// executeStep runs a single step: precondition skip, command with retries,
// then postcondition verification.
func (e *Executor) executeStep(ctx context.Context, step spec.Step) Result {
	if len(step.Preconditions) > 0 {
		satisfied, _ := e.evaluator.EvaluateAll(ctx, step.Preconditions)
		if satisfied {
			return NewResult(step.ID, StatusSkipped, nil)
		}
	}

	e.log(ctx).Info(ctx, "executing step",
		ports.F("step", step.ID.String()),
		ports.F("command", step.Command[0]))

	var attempts []Attempt
	start := time.Now()

	err := retry.Do(
		func() error {
			attemptStart := time.Now()
			attemptErr := e.runAttempt(ctx, step)
			attempts = append(attempts, Attempt{
				Number:   len(attempts) + 1,
				Err:      attemptErr,
				Duration: time.Since(attemptStart),
			})
			return attemptErr
		},
		retry.Context(ctx),
		retry.Attempts(uint(step.MaxAttempts())),
		retry.Delay(e.backoffBase),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			e.log(ctx).Warn(ctx, "step attempt failed, retrying",
				ports.F("step", step.ID.String()),
				ports.F("attempt", n+1),
				ports.F("error", err))
		}),
	)

	total := time.Since(start)
	classifyAttempts(attempts)

	if err != nil {
		if ctx.Err() != nil {
			return NewResult(step.ID, StatusCancelled, ctx.Err()).
				WithAttempts(attempts).WithDuration(total)
		}
		failure := &StepFailedError{StepID: step.ID, Attempts: len(attempts), Cause: err}
		return NewResult(step.ID, StatusFailed, failure).
			WithAttempts(attempts).WithDuration(total)
	}

	// A zero-exit command whose declared outcome is absent is still a failure.
	if len(step.Postconditions) > 0 {
		satisfied, results := e.evaluator.EvaluateAll(ctx, step.Postconditions)
		if !satisfied {
			postErr := &PostconditionError{StepID: step.ID, Unmet: unmet(results)}
			return NewResult(step.ID, StatusFailed, postErr).
				WithAttempts(attempts).WithDuration(total)
		}
	}

	return NewResult(step.ID, StatusSucceeded, nil).
		WithAttempts(attempts).WithDuration(total)
}

// runAttempt executes the step command once under the step timeout.
func (e *Executor) runAttempt(ctx context.Context, step spec.Step) error {
	attemptCtx, cancel := context.WithTimeout(ctx, step.EffectiveTimeout())
	defer cancel()

	result, err := e.runner.Run(attemptCtx, step.Command, step.Env...)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return &StepTimeoutError{StepID: step.ID, Timeout: step.EffectiveTimeout()}
		}
		return err
	}
	if !result.Success() {
		return &StepExecutionError{
			StepID:   step.ID,
			ExitCode: result.ExitCode,
			Stderr:   result.StderrTail(5),
		}
	}
	return nil
}

// classifyAttempts labels each attempt record once the step is settled:
// a failed attempt followed by another was retried.
func classifyAttempts(attempts []Attempt) {
	for i := range attempts {
		switch {
		case attempts[i].Err == nil:
			attempts[i].Outcome = OutcomeSucceeded
		case i < len(attempts)-1:
			attempts[i].Outcome = OutcomeRetried
		default:
			attempts[i].Outcome = OutcomeFailed
		}
	}
}

func unmet(results []checks.Result) []checks.Result {
	var out []checks.Result
	for _, r := range results {
		if !r.Satisfied {
			out = append(out, r)
		}
	}
	return out
}
