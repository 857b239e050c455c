package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario scripts one conformance run: it drives a projection over a
// string source through a sequence of operations and asserts on the
// resulting notification trace and final state.
type Scenario struct {
	// Name identifies the scenario; golden files are stored under it.
	Name string `yaml:"name"`

	// Description states what the scenario demonstrates.
	Description string `yaml:"description"`

	// Items is the initial source sequence.
	Items []string `yaml:"items,omitempty"`

	// Sorter selects the initial comparator. One of:
	// "numeric", "text", "text-ci", "reverse-numeric", "unordered", "none".
	Sorter string `yaml:"sorter"`

	// Incremental enables cooperative sorting. Incremental scenarios must
	// pump or drain the loop to make progress.
	Incremental bool `yaml:"incremental,omitempty"`

	// StepMS is the per-tick sorting budget in simulated milliseconds.
	// Zero means 1ms. The scenario clock advances 1ms per reading, so a
	// budget of N ms executes N sort units per tick.
	StepMS int `yaml:"step_ms,omitempty"`

	// MaxMerge caps merge batch sizes during incremental sorting, keeping
	// individual ticks small. Zero leaves the engine default in place.
	MaxMerge int `yaml:"max_merge,omitempty"`

	// Ops is the sequence of operations to apply.
	Ops []Op `yaml:"ops,omitempty"`

	// Assertions run after the last op against the trace and final
	// state. Supported types: final_projection, final_source,
	// trace_count, trace_event, sorted.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Op is a single scenario operation. Exactly one field must be set.
type Op struct {
	// Splice edits the source in place.
	Splice *SpliceOp `yaml:"splice,omitempty"`

	// Append adds items to the end of the source.
	Append *AppendOp `yaml:"append,omitempty"`

	// Remove deletes a run of items from the source.
	Remove *RemoveOp `yaml:"remove,omitempty"`

	// SetSorter swaps the comparator.
	SetSorter *SetSorterOp `yaml:"set_sorter,omitempty"`

	// SetIncremental toggles cooperative sorting.
	SetIncremental *SetIncrementalOp `yaml:"set_incremental,omitempty"`

	// SetSource replaces the source wholesale.
	SetSource *SetSourceOp `yaml:"set_source,omitempty"`

	// Pump runs up to Ticks scheduler rounds.
	Pump *PumpOp `yaml:"pump,omitempty"`

	// Drain runs the scheduler until no work remains.
	Drain bool `yaml:"drain,omitempty"`

	// Close detaches the view from its source and sorter.
	Close bool `yaml:"close,omitempty"`
}

// SpliceOp replaces Remove items at position At with Add.
type SpliceOp struct {
	At     int      `yaml:"at"`
	Remove int      `yaml:"remove,omitempty"`
	Add    []string `yaml:"add,omitempty"`
}

// AppendOp adds items to the end of the source.
type AppendOp struct {
	Items []string `yaml:"items"`
}

// RemoveOp deletes Count items starting at At. Count zero means one.
type RemoveOp struct {
	At    int `yaml:"at"`
	Count int `yaml:"count,omitempty"`
}

// SetSorterOp swaps the comparator to the named sorter.
type SetSorterOp struct {
	Sorter string `yaml:"sorter"`
}

// SetIncrementalOp toggles cooperative sorting.
type SetIncrementalOp struct {
	On bool `yaml:"on"`
}

// SetSourceOp replaces the source with a fresh sequence.
type SetSourceOp struct {
	Items []string `yaml:"items"`
}

// PumpOp runs up to Ticks scheduler rounds, stopping early if the loop
// goes idle.
type PumpOp struct {
	Ticks int `yaml:"ticks"`
}

// Assertion validates the trace or final state.
type Assertion struct {
	// Type selects what to check:
	// - "final_projection": Final projected sequence equals Items
	// - "final_source": Final source sequence equals Items
	// - "trace_count": Exactly Count notifications were observed
	// - "trace_event": The Seq-th notification matches the given fields
	// - "sorted": Final projection is non-decreasing under Sorter
	Type string `yaml:"type"`

	// Items is the expected sequence (final_projection, final_source).
	Items []string `yaml:"items,omitempty"`

	// Count is the expected notification total (trace_count).
	Count int `yaml:"count,omitempty"`

	// Seq selects a trace event, 1-based (trace_event).
	Seq int64 `yaml:"seq,omitempty"`

	// Position, Removed and Added match the selected event's payload
	// (trace_event). Absent fields are not checked.
	Position *int `yaml:"position,omitempty"`
	Removed  *int `yaml:"removed,omitempty"`
	Added    *int `yaml:"added,omitempty"`

	// Projection matches the selected event's post-notification snapshot
	// (trace_event). Absent means not checked.
	Projection []string `yaml:"projection,omitempty"`

	// Sorter names the comparator for the sorted assertion.
	Sorter string `yaml:"sorter,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalProjection = "final_projection"
	AssertFinalSource     = "final_source"
	AssertTraceCount      = "trace_count"
	AssertTraceEvent      = "trace_event"
	AssertSorted          = "sorted"
)

// Sorter name constants.
const (
	SorterNumeric        = "numeric"
	SorterText           = "text"
	SorterTextCI         = "text-ci"
	SorterReverseNumeric = "reverse-numeric"
	SorterUnordered      = "unordered"
	SorterNone           = "none"
)

// knownSorter reports whether name is a recognized sorter spec.
func knownSorter(name string) bool {
	switch name {
	case SorterNumeric, SorterText, SorterTextCI, SorterReverseNumeric, SorterUnordered, SorterNone:
		return true
	}
	return false
}

// LoadScenario reads a scenario from a YAML file. Unknown fields are
// rejected so a typo in an op or assertion name fails loudly instead of
// silently skipping the step.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario rejects scenarios missing required fields or naming
// unknown sorters, ops, or assertion types.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Sorter == "" {
		return fmt.Errorf("sorter is required (use %q for no comparator)", SorterNone)
	}
	if !knownSorter(s.Sorter) {
		return fmt.Errorf("unknown sorter %q", s.Sorter)
	}

	if s.StepMS < 0 {
		return fmt.Errorf("step_ms must be non-negative")
	}
	if s.MaxMerge < 0 {
		return fmt.Errorf("max_merge must be non-negative")
	}

	for i, op := range s.Ops {
		if err := validateOp(i, &op); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateOp checks that exactly one operation field is set and that its
// parameters are shape-valid. Bounds against the live source are checked
// at execution time.
func validateOp(index int, op *Op) error {
	set := 0
	if op.Splice != nil {
		set++
		if op.Splice.At < 0 {
			return fmt.Errorf("ops[%d].splice: at must be non-negative", index)
		}
		if op.Splice.Remove < 0 {
			return fmt.Errorf("ops[%d].splice: remove must be non-negative", index)
		}
	}
	if op.Append != nil {
		set++
		if len(op.Append.Items) == 0 {
			return fmt.Errorf("ops[%d].append: items is required and must be non-empty", index)
		}
	}
	if op.Remove != nil {
		set++
		if op.Remove.At < 0 {
			return fmt.Errorf("ops[%d].remove: at must be non-negative", index)
		}
		if op.Remove.Count < 0 {
			return fmt.Errorf("ops[%d].remove: count must be non-negative", index)
		}
	}
	if op.SetSorter != nil {
		set++
		if !knownSorter(op.SetSorter.Sorter) {
			return fmt.Errorf("ops[%d].set_sorter: unknown sorter %q", index, op.SetSorter.Sorter)
		}
	}
	if op.SetIncremental != nil {
		set++
	}
	if op.SetSource != nil {
		set++
	}
	if op.Pump != nil {
		set++
		if op.Pump.Ticks < 1 {
			return fmt.Errorf("ops[%d].pump: ticks must be at least 1", index)
		}
	}
	if op.Drain {
		set++
	}
	if op.Close {
		set++
	}

	if set == 0 {
		return fmt.Errorf("ops[%d]: no operation specified", index)
	}
	if set > 1 {
		return fmt.Errorf("ops[%d]: exactly one operation per entry, got %d", index, set)
	}
	return nil
}

// validateAssertion checks the fields each assertion type requires.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFinalProjection, AssertFinalSource:
		if a.Items == nil {
			return fmt.Errorf("assertions[%d]: items is required for %s (use [] for empty)", index, a.Type)
		}
	case AssertTraceCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertTraceEvent:
		if a.Seq < 1 {
			return fmt.Errorf("assertions[%d]: seq must be at least 1 for trace_event", index)
		}
		if a.Position == nil && a.Removed == nil && a.Added == nil && a.Projection == nil {
			return fmt.Errorf("assertions[%d]: trace_event needs at least one of position, removed, added, projection", index)
		}
	case AssertSorted:
		switch a.Sorter {
		case SorterNumeric, SorterText, SorterTextCI, SorterReverseNumeric:
		default:
			return fmt.Errorf("assertions[%d]: sorted needs a comparator sorter, got %q", index, a.Sorter)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
