package harness

import (
	"github.com/roach88/geocheck/internal/report"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held and every repeat matched.
	Pass bool `json:"pass"`

	// Errors contains one message per failed check. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Report is the report of the first run; Data and Hash are its bytes
	// and content hash.
	Report *report.Report `json:"-"`
	Data   []byte         `json:"-"`
	Hash   string         `json:"hash"`

	// Runs is the number of pipeline executions performed.
	Runs int `json:"runs"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
