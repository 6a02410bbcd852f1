package spec

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Loader loads provisioning documents from the filesystem.
type Loader struct{}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// rawDocument is the wire representation shared by the YAML and TOML forms.
type rawDocument struct {
	Defaults rawDefaults `yaml:"defaults,omitempty" toml:"defaults,omitempty"`
	Steps    []rawStep   `yaml:"steps" toml:"steps"`
	Checks   []rawCheck  `yaml:"checks,omitempty" toml:"checks,omitempty"`
}

type rawDefaults struct {
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

type rawStep struct {
	ID             string     `yaml:"id" toml:"id"`
	Description    string     `yaml:"description,omitempty" toml:"description,omitempty"`
	Command        []string   `yaml:"command" toml:"command"`
	Env            []string   `yaml:"env,omitempty" toml:"env,omitempty"`
	Preconditions  []rawCheck `yaml:"preconditions,omitempty" toml:"preconditions,omitempty"`
	Postconditions []rawCheck `yaml:"postconditions,omitempty" toml:"postconditions,omitempty"`
	Retryable      bool       `yaml:"retryable,omitempty" toml:"retryable,omitempty"`
	MaxRetries     int        `yaml:"max_retries,omitempty" toml:"max_retries,omitempty"`
	Timeout        string     `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

type rawCheck struct {
	Kind     string `yaml:"kind" toml:"kind"`
	Target   string `yaml:"target" toml:"target"`
	Expected string `yaml:"expected,omitempty" toml:"expected,omitempty"`
}

// Load reads, parses, and validates a provisioning document.
// All failures surface as *ConfigError; nothing has executed when Load fails.
func (l *Loader) Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewSpecNotFoundError(path)
		}
		return nil, NewParseError(path, err)
	}

	var raw rawDocument
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, NewParseError(path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, NewParseError(path, err)
		}
	default:
		return nil, NewUnsupportedFormatError(path)
	}

	doc, err := l.convert(raw)
	if err != nil {
		return nil, withSpecPath(err, path)
	}

	if err := doc.Validate(); err != nil {
		return nil, withSpecPath(err, path)
	}

	return doc, nil
}

// withSpecPath attaches the spec path to config errors for context.
func withSpecPath(err error, path string) error {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.WithPath(path)
	}
	return err
}

// convert turns the wire form into the domain model, parsing ids, kinds,
// and durations along the way.
func (l *Loader) convert(raw rawDocument) (*Document, error) {
	defaultTimeout := time.Duration(0)
	if raw.Defaults.Timeout != "" {
		d, err := time.ParseDuration(raw.Defaults.Timeout)
		if err != nil {
			return nil, NewInvalidTimeoutError("", raw.Defaults.Timeout, err)
		}
		defaultTimeout = d
	}

	steps := make([]Step, 0, len(raw.Steps))
	for _, rs := range raw.Steps {
		id, err := NewStepID(rs.ID)
		if err != nil {
			return nil, NewInvalidStepError(rs.ID, err)
		}

		timeout := defaultTimeout
		if rs.Timeout != "" {
			d, err := time.ParseDuration(rs.Timeout)
			if err != nil {
				return nil, NewInvalidTimeoutError(rs.ID, rs.Timeout, err)
			}
			timeout = d
		}

		pre, err := convertChecks(rs.Preconditions)
		if err != nil {
			return nil, NewInvalidStepError(rs.ID, err)
		}
		post, err := convertChecks(rs.Postconditions)
		if err != nil {
			return nil, NewInvalidStepError(rs.ID, err)
		}

		steps = append(steps, Step{
			ID:             id,
			Description:    rs.Description,
			Command:        rs.Command,
			Env:            rs.Env,
			Preconditions:  pre,
			Postconditions: post,
			Retryable:      rs.Retryable,
			MaxRetries:     rs.MaxRetries,
			Timeout:        timeout,
		})
	}

	// Final checks are converted here rather than through convertChecks so a
	// failure can name the offending check in the error message.
	var finalChecks []Check
	for _, rc := range raw.Checks {
		kind, err := ParseCheckKind(rc.Kind)
		if err != nil {
			bad := Check{Kind: CheckKind(rc.Kind), Target: rc.Target, Expected: rc.Expected}
			return nil, NewInvalidCheckError(bad, err)
		}
		finalChecks = append(finalChecks, Check{Kind: kind, Target: rc.Target, Expected: rc.Expected})
	}

	return &Document{Steps: steps, FinalChecks: finalChecks}, nil
}

func convertChecks(raw []rawCheck) ([]Check, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	checks := make([]Check, 0, len(raw))
	for _, rc := range raw {
		kind, err := ParseCheckKind(rc.Kind)
		if err != nil {
			return nil, err
		}
		checks = append(checks, Check{
			Kind:     kind,
			Target:   rc.Target,
			Expected: rc.Expected,
		})
	}
	return checks, nil
}
