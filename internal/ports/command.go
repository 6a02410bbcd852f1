// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"strings"
)

// CommandResult represents the result of executing an external command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// StderrTail returns the last n lines of stderr for diagnostics.
func (r CommandResult) StderrTail(n int) string {
	trimmed := strings.TrimRight(r.Stderr, "\n")
	if trimmed == "" {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}

// CommandRunner executes external commands against the target environment.
type CommandRunner interface {
	// Run executes argv[0] with argv[1:] as arguments. The extra environment
	// entries (KEY=VALUE) are appended to the current process environment.
	Run(ctx context.Context, argv []string, env ...string) (CommandResult, error)

	// LookPath resolves an executable name against PATH.
	LookPath(name string) (string, error)
}
