package harness

// StepSnapshot records the index after one flow step.
type StepSnapshot struct {
	Step       int      `json:"step"`
	Action     string   `json:"action"`
	Label      string   `json:"label,omitempty"`
	Error      string   `json:"error,omitempty"`
	Count      int      `json:"count"`
	Order      []string `json:"order"`
	BatchCount int      `json:"batch_count"`
	BatchOrder []string `json:"batch_order"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	Pass bool `json:"pass"`

	// Steps holds one snapshot per flow step, in order.
	Steps []StepSnapshot `json:"steps"`

	// Entries is the number of journal entries the flow wrote.
	Entries int `json:"entries"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepSnapshot{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Final returns the last step snapshot.
func (r *Result) Final() StepSnapshot {
	if len(r.Steps) == 0 {
		return StepSnapshot{Order: []string{}, BatchOrder: []string{}}
	}
	return r.Steps[len(r.Steps)-1]
}

// canonical converts s for ir.MarshalCanonical.
func (s StepSnapshot) canonical() map[string]any {
	m := map[string]any{
		"step":        s.Step,
		"action":      s.Action,
		"count":       s.Count,
		"order":       s.Order,
		"batch_count": s.BatchCount,
		"batch_order": s.BatchOrder,
	}
	if s.Label != "" {
		m["label"] = s.Label
	}
	if s.Error != "" {
		m["error"] = s.Error
	}
	return m
}
