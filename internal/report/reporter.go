// Package report renders run outcomes for humans and machines.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/provisionkit/provision/internal/domain/execution"
	"github.com/provisionkit/provision/internal/domain/verify"
)

// Reporter renders human-readable reports. Rendering is pure: it never
// fails and has no side effects beyond producing text.
type Reporter struct {
	header  lipgloss.Style
	ok      lipgloss.Style
	fail    lipgloss.Style
	skip    lipgloss.Style
	warn    lipgloss.Style
	subtle  lipgloss.Style
	summary lipgloss.Style
}

// NewReporter creates a Reporter with the default styles.
func NewReporter() *Reporter {
	return &Reporter{
		header:  lipgloss.NewStyle().Bold(true),
		ok:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		fail:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		skip:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		subtle:  lipgloss.NewStyle().Faint(true),
		summary: lipgloss.NewStyle().Bold(true),
	}
}

// Render produces the full report for a run and its verification.
// The verification report may be nil when verification did not run.
func (r *Reporter) Render(run *execution.Run, verification *verify.Report) string {
	var b strings.Builder

	b.WriteString(r.header.Render("Provisioning Run") + "\n")
	b.WriteString(r.subtle.Render(fmt.Sprintf("run %s", run.ID())) + "\n\n")

	var succeeded, failed, skipped, cancelled int
	for _, result := range run.Results() {
		switch result.Status() {
		case execution.StatusSucceeded:
			succeeded++
			b.WriteString(fmt.Sprintf("  %s %s%s\n",
				r.ok.Render("✓"), result.StepID(), r.attemptNote(result)))
		case execution.StatusSkipped:
			skipped++
			b.WriteString(fmt.Sprintf("  %s %s %s\n",
				r.skip.Render("-"), result.StepID(), r.skip.Render("(skipped, already satisfied)")))
		case execution.StatusFailed:
			failed++
			b.WriteString(fmt.Sprintf("  %s %s: %v\n",
				r.fail.Render("✗"), result.StepID(), result.Error()))
		case execution.StatusCancelled:
			cancelled++
			b.WriteString(fmt.Sprintf("  %s %s %s\n",
				r.warn.Render("!"), result.StepID(), r.warn.Render("(cancelled)")))
		}
		for _, attempt := range result.Attempts() {
			if attempt.Outcome == execution.OutcomeRetried {
				b.WriteString(r.subtle.Render(fmt.Sprintf(
					"      attempt %d retried: %v", attempt.Number, attempt.Err)) + "\n")
			}
		}
	}

	b.WriteString("\n" + r.summary.Render(fmt.Sprintf(
		"Run %s: %d succeeded, %d skipped, %d failed, %d cancelled (%s)",
		run.Status(), succeeded, skipped, failed, cancelled,
		run.Duration().Round(time.Millisecond))) + "\n")

	if verification != nil {
		b.WriteString("\n" + r.renderVerification(verification))
	}

	return b.String()
}

// RenderPlan produces the dry-run view of a document.
func (r *Reporter) RenderPlan(plan *execution.Plan) string {
	var b strings.Builder

	b.WriteString(r.header.Render("Provisioning Plan") + "\n\n")

	for _, entry := range plan.Entries() {
		if entry.WouldRun {
			b.WriteString(fmt.Sprintf("  %s %s\n", r.warn.Render("+"), entry.Step.ID))
			for _, unmet := range entry.Unsatisfied {
				b.WriteString(r.subtle.Render(fmt.Sprintf(
					"      needs: %s (%s)", unmet.Check, unmet.Reason)) + "\n")
			}
		} else {
			b.WriteString(fmt.Sprintf("  %s %s %s\n",
				r.skip.Render("-"), entry.Step.ID, r.skip.Render("(would skip)")))
		}
	}

	b.WriteString("\n" + r.summary.Render(fmt.Sprintf(
		"%d of %d steps would run.", plan.CountWouldRun(), plan.Len())) + "\n")

	return b.String()
}

// RenderVerification produces the standalone verification view.
func (r *Reporter) RenderVerification(verification *verify.Report) string {
	return r.header.Render("Verification") + "\n\n" + r.renderVerification(verification)
}

func (r *Reporter) renderVerification(verification *verify.Report) string {
	var b strings.Builder

	for _, result := range verification.Results() {
		if result.Satisfied {
			note := ""
			if result.Reason != "" {
				note = " " + r.subtle.Render(result.Reason)
			}
			b.WriteString(fmt.Sprintf("  %s %s%s\n", r.ok.Render("✓"), result.Check, note))
		} else {
			b.WriteString(fmt.Sprintf("  %s %s: %s\n",
				r.fail.Render("✗"), result.Check, result.Reason))
		}
	}

	if verification.OK() {
		b.WriteString("\n" + r.summary.Render(fmt.Sprintf(
			"Verification passed: %d check(s) satisfied.", verification.Len())) + "\n")
	} else {
		b.WriteString("\n" + r.summary.Render(fmt.Sprintf(
			"Verification failed: %d of %d check(s) unmet.",
			len(verification.Unmet()), verification.Len())) + "\n")
	}

	return b.String()
}

func (r *Reporter) attemptNote(result execution.Result) string {
	if result.AttemptCount() > 1 {
		return r.subtle.Render(fmt.Sprintf(" (after %d attempts)", result.AttemptCount()))
	}
	return ""
}
