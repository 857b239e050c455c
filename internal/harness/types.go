package harness

// TraceEvent records one change notification observed during a scenario run.
// Projection is the snapshot taken immediately after the notification, so
// goldens capture exactly what an observer reading the view at that moment
// would have seen.
type TraceEvent struct {
	// Seq numbers events from 1 in emission order.
	Seq int64 `json:"seq"`

	// Op labels the scenario step that triggered the notification,
	// e.g. "attach", "splice(2,-1,+2)", "pump", "drain".
	Op string `json:"op"`

	// Position, Removed and Added echo the notification payload.
	Position int `json:"position"`
	Removed  int `json:"removed"`
	Added    int `json:"added"`

	// Projection is the full projected sequence after the notification.
	Projection []string `json:"projection"`
}

// Result is what a scenario run produces: the notification trace and
// final sequences, plus any assertion failures.
type Result struct {
	// Pass is true while Errors is empty.
	Pass bool `json:"pass"`

	// Trace holds every observed notification in emission order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists assertion failure messages.
	Errors []string `json:"errors,omitempty"`

	// Projection is the final projected sequence.
	Projection []string `json:"projection"`

	// Source is the final source sequence.
	Source []string `json:"source"`
}

// NewResult starts a passing result with non-nil slices so JSON output
// renders [] rather than null.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records an assertion failure and flips Pass to false.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
