package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/provisionkit/provision/internal/app"
	"github.com/provisionkit/provision/internal/domain/execution"
	"github.com/provisionkit/provision/internal/domain/spec"
	"github.com/provisionkit/provision/internal/domain/verify"
	"github.com/provisionkit/provision/internal/ports"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a provisioning spec against the target environment",
	Long: `Run loads the spec, executes each step in order, and verifies the
final checks once every step has succeeded.

Steps whose preconditions already hold are skipped. A step failure halts the
run unless --continue-on-error is set. Use --dry-run to see what would
execute without changing anything.`,
	RunE: runRun,
}

var (
	runSpecPath        string
	runDryRun          bool
	runContinueOnError bool
	runSummaryPath     string
)

// engineClient is the slice of the application the run command needs.
// A variable constructor keeps it injectable in tests.
type engineClient interface {
	Load(path string) (*spec.Document, error)
	Plan(ctx context.Context, doc *spec.Document) *execution.Plan
	Run(ctx context.Context, doc *spec.Document) *execution.Run
	Verify(ctx context.Context, doc *spec.Document) (*verify.Report, error)
	PrintPlan(plan *execution.Plan)
	PrintReport(run *execution.Run, verification *verify.Report)
	PrintVerification(verification *verify.Report)
	WriteSummaryFile(path string, run *execution.Run, verification *verify.Report) error
}

var newEngine = func(out io.Writer, logger ports.Logger, continueOnError bool) engineClient {
	return app.New(out, logger).WithContinueOnError(continueOnError)
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runSpecPath, "spec", "s", "", "Path to the provisioning spec (required)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Evaluate preconditions without executing anything")
	runCmd.Flags().BoolVar(&runContinueOnError, "continue-on-error", false, "Record failures and keep going instead of halting")
	runCmd.Flags().StringVar(&runSummaryPath, "summary", "", "Write a machine-readable JSON summary to this file")
	_ = runCmd.MarkFlagRequired("spec")
}

func runRun(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	ctx = ports.ContextWithLogger(ctx, logger)
	engine := newEngine(os.Stdout, logger, runContinueOnError)

	doc, err := engine.Load(runSpecPath)
	if err != nil {
		return err
	}

	if runDryRun {
		engine.PrintPlan(engine.Plan(ctx, doc))
		return nil
	}

	run := engine.Run(ctx, doc)

	// Final checks only make sense against a fully provisioned target.
	var verification *verify.Report
	var verifyErr error
	if run.Status().Succeeded() && len(doc.FinalChecks) > 0 {
		verification, verifyErr = engine.Verify(ctx, doc)
	}

	engine.PrintReport(run, verification)

	if runSummaryPath != "" {
		if err := engine.WriteSummaryFile(runSummaryPath, run, verification); err != nil {
			return err
		}
	}

	if !run.Status().Succeeded() {
		return runFailure(run)
	}
	if verifyErr != nil {
		return verifyErr
	}
	return nil
}

// runFailure surfaces the failed run with full context: the failing step,
// its attempt count, and the underlying error.
func runFailure(run *execution.Run) error {
	for _, result := range run.Results() {
		if result.Status() == execution.StatusFailed {
			return result.Error()
		}
		if result.Status() == execution.StatusCancelled {
			return fmt.Errorf("run cancelled at step %s", result.StepID())
		}
	}
	return fmt.Errorf("run finished with status %s", run.Status())
}
