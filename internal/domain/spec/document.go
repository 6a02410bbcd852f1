package spec

// Document is a parsed provisioning spec: the ordered step registry plus
// the final verification checks.
type Document struct {
	Steps       []Step
	FinalChecks []Check
}

// Validate checks document-level invariants: every step valid, every final
// check valid, and step ids unique.
func (d *Document) Validate() error {
	seen := make(map[string]bool, len(d.Steps))
	for _, step := range d.Steps {
		if err := step.Validate(); err != nil {
			return NewInvalidStepError(step.ID.String(), err)
		}
		if seen[step.ID.String()] {
			return NewDuplicateStepError(step.ID.String())
		}
		seen[step.ID.String()] = true
	}
	for _, c := range d.FinalChecks {
		if err := c.Validate(); err != nil {
			return NewInvalidCheckError(c, err)
		}
	}
	return nil
}

// Len returns the number of steps.
func (d *Document) Len() int {
	return len(d.Steps)
}
