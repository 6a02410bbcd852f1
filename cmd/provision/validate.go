package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate a provisioning spec without executing it",
	RunE:  runValidate,
}

var validateSpecPath string

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateSpecPath, "spec", "s", "", "Path to the provisioning spec (required)")
	_ = validateCmd.MarkFlagRequired("spec")
}

func runValidate(_ *cobra.Command, _ []string) error {
	engine := newEngine(os.Stdout, newLogger(), false)

	doc, err := engine.Load(validateSpecPath)
	if err != nil {
		return err
	}

	fmt.Printf("Spec is valid: %d step(s), %d final check(s).\n", doc.Len(), len(doc.FinalChecks))
	return nil
}
