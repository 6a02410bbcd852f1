package spec

import (
	"fmt"
	"strings"
)

// Error codes for spec loading and validation.
const (
	ErrCodeSpecNotFound   = "SPEC_NOT_FOUND"
	ErrCodeSpecParse      = "SPEC_PARSE"
	ErrCodeSpecFormat     = "SPEC_FORMAT"
	ErrCodeStepDuplicate  = "STEP_DUPLICATE"
	ErrCodeStepInvalid    = "STEP_INVALID"
	ErrCodeCheckInvalid   = "CHECK_INVALID"
	ErrCodeTimeoutInvalid = "TIMEOUT_INVALID"
)

// ConfigError is a structured error raised before any step executes.
// Nothing has run when a ConfigError surfaces.
type ConfigError struct {
	Code       string // Error code for categorization
	Message    string // User-friendly error message
	Path       string // Spec file path if applicable
	StepID     string // Step id if applicable
	Suggestion string // Actionable suggestion to fix the error
	Underlying error  // Wrapped error for error chain
}

// Error returns the formatted error message.
func (e *ConfigError) Error() string {
	var parts []string

	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("spec %q", e.Path))
	}
	if e.StepID != "" {
		parts = append(parts, fmt.Sprintf("step %q", e.StepID))
	}

	if len(parts) > 0 {
		return fmt.Sprintf("%s: %s", strings.Join(parts, ", "), e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain support.
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// Format returns a fully formatted error with all details.
func (e *ConfigError) Format() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Path != "" {
		b.WriteString(fmt.Sprintf("\n  Spec: %s", e.Path))
	}
	if e.StepID != "" {
		b.WriteString(fmt.Sprintf("\n  Step: %s", e.StepID))
	}
	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  Suggestion: %s", e.Suggestion))
	}
	if e.Underlying != nil {
		b.WriteString(fmt.Sprintf("\n  Cause: %s", e.Underlying.Error()))
	}

	return b.String()
}

// WithPath returns a copy of the error with the spec path set.
func (e *ConfigError) WithPath(path string) *ConfigError {
	clone := *e
	clone.Path = path
	return &clone
}

// NewSpecNotFoundError creates an error for a missing spec file.
func NewSpecNotFoundError(path string) *ConfigError {
	return &ConfigError{
		Code:       ErrCodeSpecNotFound,
		Message:    "spec file not found",
		Path:       path,
		Suggestion: "Check the --spec path. A provisioning spec is a YAML or TOML file describing steps and final checks.",
	}
}

// NewParseError creates an error for an unparseable spec file.
func NewParseError(path string, err error) *ConfigError {
	return &ConfigError{
		Code:       ErrCodeSpecParse,
		Message:    "spec file could not be parsed",
		Path:       path,
		Suggestion: "Fix the syntax error reported below. The spec must be valid YAML (.yaml/.yml) or TOML (.toml).",
		Underlying: err,
	}
}

// NewUnsupportedFormatError creates an error for an unknown spec extension.
func NewUnsupportedFormatError(path string) *ConfigError {
	return &ConfigError{
		Code:       ErrCodeSpecFormat,
		Message:    "unsupported spec file format",
		Path:       path,
		Suggestion: "Use a .yaml, .yml, or .toml extension.",
	}
}

// NewDuplicateStepError creates an error for a duplicated step id.
func NewDuplicateStepError(stepID string) *ConfigError {
	return &ConfigError{
		Code:       ErrCodeStepDuplicate,
		Message:    "step with this id already exists in the document",
		StepID:     stepID,
		Suggestion: "Each step must have a unique id. Rename one of the duplicates.",
	}
}

// NewInvalidStepError creates an error for a malformed step.
func NewInvalidStepError(stepID string, err error) *ConfigError {
	return &ConfigError{
		Code:       ErrCodeStepInvalid,
		Message:    "step definition is invalid",
		StepID:     stepID,
		Suggestion: "Check the step's id, command, retry policy, and declared checks.",
		Underlying: err,
	}
}

// NewInvalidCheckError creates an error for a malformed final check.
func NewInvalidCheckError(check Check, err error) *ConfigError {
	return &ConfigError{
		Code:       ErrCodeCheckInvalid,
		Message:    fmt.Sprintf("final check %s is invalid", check),
		Suggestion: "Each check needs a known kind and a non-empty target; version-matches also needs an expected version.",
		Underlying: err,
	}
}

// NewInvalidTimeoutError creates an error for an unparseable duration field.
func NewInvalidTimeoutError(stepID, raw string, err error) *ConfigError {
	return &ConfigError{
		Code:       ErrCodeTimeoutInvalid,
		Message:    fmt.Sprintf("timeout %q is not a valid duration", raw),
		StepID:     stepID,
		Suggestion: `Use Go duration syntax, e.g. "30s", "5m", "1h".`,
		Underlying: err,
	}
}
