// Package verify runs the final artifact checks after a successful run.
package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/provisionkit/provision/internal/domain/checks"
	"github.com/provisionkit/provision/internal/domain/spec"
)

// Report holds the outcome of every final check.
type Report struct {
	results []checks.Result
}

// NewReport creates a Report from already evaluated check results.
func NewReport(results []checks.Result) *Report {
	return &Report{results: results}
}

// Results returns all check results, in declaration order.
func (r *Report) Results() []checks.Result {
	return r.results
}

// Unmet returns the checks that did not hold.
func (r *Report) Unmet() []checks.Result {
	var out []checks.Result
	for _, res := range r.results {
		if !res.Satisfied {
			out = append(out, res)
		}
	}
	return out
}

// OK returns true when every final check held.
func (r *Report) OK() bool {
	return len(r.Unmet()) == 0
}

// Len returns the number of checks evaluated.
func (r *Report) Len() int {
	return len(r.results)
}

// VerificationError aggregates every unmet final check. Unlike step
// execution, verification is not fail-fast: all mismatches are collected
// for diagnostic value before surfacing.
type VerificationError struct {
	Unmet []checks.Result
}

// Error returns the formatted error message listing every unmet check.
func (e *VerificationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "verification failed: %d check(s) unmet", len(e.Unmet))
	for _, r := range e.Unmet {
		fmt.Fprintf(&b, "\n  - %s: %s", r.Check, r.Reason)
	}
	return b.String()
}

// Verifier evaluates the final-checks list against the target.
type Verifier struct {
	evaluator *checks.Evaluator
}

// NewVerifier creates a new Verifier.
func NewVerifier(evaluator *checks.Evaluator) *Verifier {
	return &Verifier{evaluator: evaluator}
}

// Verify evaluates every final check, never stopping early. The returned
// Report is always populated; the error is a *VerificationError when any
// check is unmet.
func (v *Verifier) Verify(ctx context.Context, finalChecks []spec.Check) (*Report, error) {
	report := NewReport(make([]checks.Result, 0, len(finalChecks)))

	for _, c := range finalChecks {
		report.results = append(report.results, v.evaluator.Evaluate(ctx, c))
	}

	if unmet := report.Unmet(); len(unmet) > 0 {
		return report, &VerificationError{Unmet: unmet}
	}
	return report, nil
}
