package report

import (
	"encoding/json"
	"io"

	"github.com/provisionkit/provision/internal/domain/execution"
	"github.com/provisionkit/provision/internal/domain/verify"
)

// StepRecord is the machine-readable summary of one step.
type StepRecord struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// CheckRecord is the machine-readable summary of one final check.
type CheckRecord struct {
	Check     string `json:"check"`
	Satisfied bool   `json:"satisfied"`
	Reason    string `json:"reason,omitempty"`
}

// VerificationSummary summarizes the final checks.
type VerificationSummary struct {
	OK     bool          `json:"ok"`
	Checks []CheckRecord `json:"checks"`
}

// RunSummary is the machine-readable summary of a whole run,
// one record per step.
type RunSummary struct {
	RunID        string               `json:"run_id"`
	Status       string               `json:"status"`
	DurationMS   int64                `json:"duration_ms"`
	Steps        []StepRecord         `json:"steps"`
	Verification *VerificationSummary `json:"verification,omitempty"`
}

// BuildSummary converts a run and optional verification into the summary
// form. Pure function.
func BuildSummary(run *execution.Run, verification *verify.Report) RunSummary {
	summary := RunSummary{
		RunID:      run.ID().String(),
		Status:     run.Status().String(),
		DurationMS: run.Duration().Milliseconds(),
		Steps:      make([]StepRecord, 0, len(run.Results())),
	}

	for _, result := range run.Results() {
		record := StepRecord{
			ID:         result.StepID().String(),
			Status:     result.Status().String(),
			Attempts:   result.AttemptCount(),
			DurationMS: result.Duration().Milliseconds(),
		}
		if result.Error() != nil {
			record.Error = result.Error().Error()
		}
		summary.Steps = append(summary.Steps, record)
	}

	if verification != nil {
		vs := &VerificationSummary{
			OK:     verification.OK(),
			Checks: make([]CheckRecord, 0, verification.Len()),
		}
		for _, r := range verification.Results() {
			vs.Checks = append(vs.Checks, CheckRecord{
				Check:     r.Check.String(),
				Satisfied: r.Satisfied,
				Reason:    r.Reason,
			})
		}
		summary.Verification = vs
	}

	return summary
}

// WriteSummary writes the summary as indented JSON.
func WriteSummary(w io.Writer, run *execution.Run, verification *verify.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildSummary(run, verification))
}
