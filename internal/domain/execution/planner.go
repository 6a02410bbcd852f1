package execution

import (
	"context"

	"github.com/provisionkit/provision/internal/domain/checks"
	"github.com/provisionkit/provision/internal/domain/spec"
)

// PlanEntry describes what a run would do for one step.
type PlanEntry struct {
	Step        spec.Step
	WouldRun    bool
	Unsatisfied []checks.Result
}

// Plan is the dry-run view of a document: which steps would execute and
// which would be skipped, with the unsatisfied preconditions that decide it.
type Plan struct {
	entries []PlanEntry
}

// NewPlan creates a Plan from prepared entries.
func NewPlan(entries []PlanEntry) *Plan {
	return &Plan{entries: entries}
}

// Entries returns all plan entries in document order.
func (p *Plan) Entries() []PlanEntry {
	return p.entries
}

// Len returns the number of entries.
func (p *Plan) Len() int {
	return len(p.entries)
}

// CountWouldRun returns how many steps would execute.
func (p *Plan) CountWouldRun() int {
	n := 0
	for _, e := range p.entries {
		if e.WouldRun {
			n++
		}
	}
	return n
}

// Planner evaluates preconditions without executing anything.
type Planner struct {
	evaluator *checks.Evaluator
}

// NewPlanner creates a new Planner.
func NewPlanner(evaluator *checks.Evaluator) *Planner {
	return &Planner{evaluator: evaluator}
}

// Plan evaluates each step's preconditions against the current target.
// A step with no preconditions always runs.
func (p *Planner) Plan(ctx context.Context, doc *spec.Document) *Plan {
	entries := make([]PlanEntry, 0, doc.Len())

	for _, step := range doc.Steps {
		entry := PlanEntry{Step: step, WouldRun: true}
		if len(step.Preconditions) > 0 {
			satisfied, results := p.evaluator.EvaluateAll(ctx, step.Preconditions)
			if satisfied {
				entry.WouldRun = false
			} else {
				entry.Unsatisfied = unmet(results)
			}
		}
		entries = append(entries, entry)
	}

	return NewPlan(entries)
}
