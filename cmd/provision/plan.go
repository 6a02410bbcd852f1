package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show which steps would run without executing anything",
	Long: `Plan evaluates every step's preconditions against the current target
and reports which steps would execute and which would be skipped.

Nothing is executed; the target is only observed.`,
	RunE: runPlan,
}

var planSpecPath string

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVarP(&planSpecPath, "spec", "s", "", "Path to the provisioning spec (required)")
	_ = planCmd.MarkFlagRequired("spec")
}

func runPlan(_ *cobra.Command, _ []string) error {
	// Precondition probes run real commands, so planning stays interruptible.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := newEngine(os.Stdout, newLogger(), false)

	doc, err := engine.Load(planSpecPath)
	if err != nil {
		return err
	}

	engine.PrintPlan(engine.Plan(ctx, doc))
	return nil
}
