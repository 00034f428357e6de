package harness

import "github.com/roach88/uniorm/internal/audit"

// Outcome of a step that succeeded.
const OutcomeOK = "ok"

// TraceEvent records one executed step.
type TraceEvent struct {
	Step    int            `json:"step"`
	Op      string         `json:"op"`
	Table   string         `json:"table,omitempty"`
	Outcome string         `json:"outcome"`
	Found   *bool          `json:"found,omitempty"`
	Count   *int           `json:"count,omitempty"`
	Values  map[string]any `json:"values,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Audit holds the audit entries the scenario produced.
	Audit []audit.Entry `json:"audit"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
