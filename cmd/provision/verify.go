package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run only the spec's final checks against the target",
	Long: `Verify evaluates the spec's final-checks list without executing any
steps. Every check runs; all mismatches are collected and reported together.`,
	RunE: runVerify,
}

var verifySpecPath string

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVarP(&verifySpecPath, "spec", "s", "", "Path to the provisioning spec (required)")
	_ = verifyCmd.MarkFlagRequired("spec")
}

func runVerify(_ *cobra.Command, _ []string) error {
	// Checks run real probe commands, so verification stays interruptible.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := newEngine(os.Stdout, newLogger(), false)

	doc, err := engine.Load(verifySpecPath)
	if err != nil {
		return err
	}

	if len(doc.FinalChecks) == 0 {
		fmt.Println("Spec declares no final checks; nothing to verify.")
		return nil
	}

	verification, verifyErr := engine.Verify(ctx, doc)
	engine.PrintVerification(verification)
	return verifyErr
}
