package spec

import (
	"fmt"
	"strings"
)

// CheckKind identifies the kind of fact a Check asserts about the target.
type CheckKind string

const (
	// CheckFileExists asserts that a path exists on the target.
	CheckFileExists CheckKind = "file-exists"
	// CheckBinaryOnPath asserts that an executable resolves against PATH.
	CheckBinaryOnPath CheckKind = "binary-on-path"
	// CheckCommandExitsZero asserts that a command exits with code 0.
	CheckCommandExitsZero CheckKind = "command-exits-zero"
	// CheckVersionMatches asserts that a command reports an expected version.
	CheckVersionMatches CheckKind = "version-matches"
)

// ParseCheckKind parses a check kind from its string form.
func ParseCheckKind(s string) (CheckKind, error) {
	switch CheckKind(s) {
	case CheckFileExists, CheckBinaryOnPath, CheckCommandExitsZero, CheckVersionMatches:
		return CheckKind(s), nil
	}
	return "", fmt.Errorf("unknown check kind %q", s)
}

// String returns the string representation of the kind.
func (k CheckKind) String() string {
	return string(k)
}

// Check is a verifiable fact about the target environment.
// Immutable once defined.
type Check struct {
	Kind     CheckKind
	Target   string
	Expected string
}

// Validate ensures the check is well formed for its kind.
func (c Check) Validate() error {
	if _, err := ParseCheckKind(string(c.Kind)); err != nil {
		return err
	}
	if strings.TrimSpace(c.Target) == "" {
		return fmt.Errorf("check %s: target cannot be empty", c.Kind)
	}
	switch c.Kind {
	case CheckVersionMatches:
		if strings.TrimSpace(c.Expected) == "" {
			return fmt.Errorf("check %s: expected version is required", c.Kind)
		}
	case CheckFileExists, CheckBinaryOnPath:
		if strings.ContainsAny(c.Target, " \t") {
			return fmt.Errorf("check %s: target %q must be a single path or binary name", c.Kind, c.Target)
		}
	case CheckCommandExitsZero:
		// Target is an argv string; any non-empty value is acceptable.
	}
	return nil
}

// Argv splits a command-style target into argv form.
func (c Check) Argv() []string {
	return strings.Fields(c.Target)
}

// String renders the check for reports and error messages.
func (c Check) String() string {
	if c.Expected != "" {
		return fmt.Sprintf("%s(%s == %s)", c.Kind, c.Target, c.Expected)
	}
	return fmt.Sprintf("%s(%s)", c.Kind, c.Target)
}
