// Package checks evaluates declared checks against the target environment.
package checks

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/provisionkit/provision/internal/domain/spec"
	"github.com/provisionkit/provision/internal/ports"
)

// Result is the outcome of evaluating a single check.
type Result struct {
	Check     spec.Check
	Satisfied bool
	Reason    string
}

// Evaluator evaluates checks through the command and filesystem ports.
// Evaluation never mutates the target.
type Evaluator struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
}

// NewEvaluator creates a new Evaluator.
func NewEvaluator(runner ports.CommandRunner, fs ports.FileSystem) *Evaluator {
	return &Evaluator{runner: runner, fs: fs}
}

// Evaluate evaluates a single check. An evaluation failure (e.g., the probe
// command could not run) counts as unsatisfied, with the reason recorded.
func (e *Evaluator) Evaluate(ctx context.Context, check spec.Check) Result {
	switch check.Kind {
	case spec.CheckFileExists:
		return e.evaluateFileExists(check)
	case spec.CheckBinaryOnPath:
		return e.evaluateBinaryOnPath(check)
	case spec.CheckCommandExitsZero:
		return e.evaluateCommandExitsZero(ctx, check)
	case spec.CheckVersionMatches:
		return e.evaluateVersionMatches(ctx, check)
	default:
		return Result{Check: check, Satisfied: false, Reason: fmt.Sprintf("unknown check kind %q", check.Kind)}
	}
}

// EvaluateAll evaluates every check and reports whether all are satisfied.
func (e *Evaluator) EvaluateAll(ctx context.Context, checks []spec.Check) (bool, []Result) {
	results := make([]Result, 0, len(checks))
	all := true
	for _, c := range checks {
		r := e.Evaluate(ctx, c)
		if !r.Satisfied {
			all = false
		}
		results = append(results, r)
	}
	return all, results
}

func (e *Evaluator) evaluateFileExists(check spec.Check) Result {
	if !e.fs.Exists(check.Target) {
		return Result{Check: check, Satisfied: false, Reason: fmt.Sprintf("path %s does not exist", check.Target)}
	}
	if e.fs.IsDir(check.Target) {
		return Result{Check: check, Satisfied: true, Reason: "directory"}
	}
	if info, err := e.fs.GetFileInfo(check.Target); err == nil {
		return Result{Check: check, Satisfied: true, Reason: fmt.Sprintf("%d bytes", info.Size)}
	}
	return Result{Check: check, Satisfied: true}
}

func (e *Evaluator) evaluateBinaryOnPath(check spec.Check) Result {
	path, err := e.runner.LookPath(check.Target)
	if err != nil {
		return Result{Check: check, Satisfied: false, Reason: fmt.Sprintf("binary %s not found on PATH", check.Target)}
	}
	return Result{Check: check, Satisfied: true, Reason: path}
}

func (e *Evaluator) evaluateCommandExitsZero(ctx context.Context, check spec.Check) Result {
	result, err := e.runner.Run(ctx, check.Argv())
	if err != nil {
		return Result{Check: check, Satisfied: false, Reason: fmt.Sprintf("probe failed to run: %v", err)}
	}
	if !result.Success() {
		return Result{Check: check, Satisfied: false, Reason: fmt.Sprintf("exit code %d", result.ExitCode)}
	}
	return Result{Check: check, Satisfied: true}
}

func (e *Evaluator) evaluateVersionMatches(ctx context.Context, check spec.Check) Result {
	result, err := e.runner.Run(ctx, check.Argv())
	if err != nil {
		return Result{Check: check, Satisfied: false, Reason: fmt.Sprintf("probe failed to run: %v", err)}
	}
	if !result.Success() {
		return Result{Check: check, Satisfied: false, Reason: fmt.Sprintf("probe exit code %d", result.ExitCode)}
	}

	// Version banners land on stdout or stderr depending on the tool.
	actual := ExtractVersion(result.Stdout + "\n" + result.Stderr)
	if actual == "" {
		return Result{Check: check, Satisfied: false, Reason: "no version found in probe output"}
	}

	if !VersionSatisfies(actual, check.Expected) {
		return Result{Check: check, Satisfied: false, Reason: fmt.Sprintf("version %s does not match expected %s", actual, check.Expected)}
	}
	return Result{Check: check, Satisfied: true, Reason: actual}
}

// versionPattern matches the first dotted version number in probe output.
var versionPattern = regexp.MustCompile(`\d+(?:\.\d+)+`)

// ExtractVersion pulls the first dotted version number out of command output.
// Returns "" when no version is present.
func ExtractVersion(output string) string {
	return versionPattern.FindString(output)
}

// VersionSatisfies reports whether an observed version satisfies the
// expected one. An expected value pinned only to a major or major.minor
// matches any release within that line (e.g. "3.7" matches "3.7.9");
// a full version requires an exact semver match.
func VersionSatisfies(actual, expected string) bool {
	a := canonical(actual)
	e := canonical(expected)
	if a == "" || e == "" {
		return actual == expected
	}

	switch {
	case e == semver.Major(e):
		return semver.Major(a) == e
	case e == semver.MajorMinor(e):
		return semver.MajorMinor(a) == e
	default:
		return semver.Compare(semver.Canonical(a), semver.Canonical(e)) == 0
	}
}

// canonical normalizes a bare version to the v-prefixed form semver expects.
func canonical(version string) string {
	v := strings.TrimSpace(version)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return v
}
