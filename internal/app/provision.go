// Package app wires the provisioning engine together.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/provisionkit/provision/internal/adapters/command"
	"github.com/provisionkit/provision/internal/adapters/filesystem"
	"github.com/provisionkit/provision/internal/domain/checks"
	"github.com/provisionkit/provision/internal/domain/execution"
	"github.com/provisionkit/provision/internal/domain/spec"
	"github.com/provisionkit/provision/internal/domain/verify"
	"github.com/provisionkit/provision/internal/ports"
	"github.com/provisionkit/provision/internal/report"
)

// Provision is the main application orchestrator.
type Provision struct {
	loader   *spec.Loader
	planner  *execution.Planner
	executor *execution.Executor
	verifier *verify.Verifier
	reporter *report.Reporter
	out      io.Writer
}

// New creates a Provision wired to the real target environment.
func New(out io.Writer, logger ports.Logger) *Provision {
	runner := command.NewExecRunner()
	fs := filesystem.NewOSFileSystem()
	evaluator := checks.NewEvaluator(runner, fs)

	return &Provision{
		loader:   spec.NewLoader(),
		planner:  execution.NewPlanner(evaluator),
		executor: execution.NewExecutor(runner, evaluator, logger),
		verifier: verify.NewVerifier(evaluator),
		reporter: report.NewReporter(),
		out:      out,
	}
}

// WithContinueOnError configures the executor to keep going past failures.
func (p *Provision) WithContinueOnError(enabled bool) *Provision {
	clone := *p
	clone.executor = p.executor.WithContinueOnError(enabled)
	return &clone
}

// Load reads and validates a provisioning spec.
func (p *Provision) Load(path string) (*spec.Document, error) {
	return p.loader.Load(path)
}

// Plan evaluates preconditions without executing anything.
func (p *Provision) Plan(ctx context.Context, doc *spec.Document) *execution.Plan {
	return p.planner.Plan(ctx, doc)
}

// Run executes the document's steps in order.
func (p *Provision) Run(ctx context.Context, doc *spec.Document) *execution.Run {
	return p.executor.Execute(ctx, doc)
}

// Verify runs the document's final checks against the target.
func (p *Provision) Verify(ctx context.Context, doc *spec.Document) (*verify.Report, error) {
	return p.verifier.Verify(ctx, doc.FinalChecks)
}

// PrintPlan writes the dry-run view to the output.
func (p *Provision) PrintPlan(plan *execution.Plan) {
	fmt.Fprint(p.out, p.reporter.RenderPlan(plan))
}

// PrintReport writes the run report, with verification when available.
func (p *Provision) PrintReport(run *execution.Run, verification *verify.Report) {
	fmt.Fprint(p.out, p.reporter.Render(run, verification))
}

// PrintVerification writes a standalone verification report.
func (p *Provision) PrintVerification(verification *verify.Report) {
	fmt.Fprint(p.out, p.reporter.RenderVerification(verification))
}

// WriteSummaryFile writes the machine-readable run summary to a file.
func (p *Provision) WriteSummaryFile(path string, run *execution.Run, verification *verify.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	defer f.Close()

	if err := report.WriteSummary(f, run, verification); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
