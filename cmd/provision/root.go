package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/provisionkit/provision/internal/adapters/logging"
	"github.com/provisionkit/provision/internal/domain/spec"
	"github.com/provisionkit/provision/internal/domain/verify"
	"github.com/provisionkit/provision/internal/ports"
)

// Exit codes, part of the CLI contract.
const (
	exitFatalStep    = 1
	exitVerification = 2
	exitConfig       = 3
)

var (
	// Global flags
	verbose bool
	logJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "provision",
	Short: "A declarative provisioning executor",
	Long: `Provision executes an ordered list of provisioning steps with declared
preconditions and postconditions against a target environment.

Steps whose preconditions already hold are skipped, so re-running a spec
against a provisioned target performs no redundant work. Failures halt the
run, retryable steps back off exponentially, and a final set of checks
verifies the expected artifacts (binaries, files, versions).`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON lines")

	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the logger configured by the global flags.
func newLogger() ports.Logger {
	level := ports.LevelWarn
	if verbose {
		level = ports.LevelDebug
	}
	return logging.NewConsoleLogger(
		logging.WithLevel(level),
		logging.WithJSONFormat(logJSON),
	)
}

// exitCode maps an error to the CLI exit code contract.
func exitCode(err error) int {
	var cfgErr *spec.ConfigError
	if errors.As(err, &cfgErr) {
		return exitConfig
	}
	var verErr *verify.VerificationError
	if errors.As(err, &verErr) {
		return exitVerification
	}
	return exitFatalStep
}

// formatError returns a user-friendly error message. Config errors carry
// their own multi-line format with a suggestion.
func formatError(err error) string {
	var cfgErr *spec.ConfigError
	if errors.As(err, &cfgErr) {
		if verbose {
			return cfgErr.Format()
		}
		msg := cfgErr.Error()
		if cfgErr.Suggestion != "" {
			msg += "\n\nSuggestion: " + cfgErr.Suggestion
		}
		return msg
	}
	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}
