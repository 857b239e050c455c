package harness

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/roach88/sortview/internal/list"
	"github.com/roach88/sortview/internal/mainloop"
	"github.com/roach88/sortview/internal/sorter"
	"github.com/roach88/sortview/internal/sortview"
	"github.com/roach88/sortview/internal/testutil"
)

// Harness executes one scenario against a live view.
// It runs on a private scheduler loop and a deterministic auto-advancing
// clock, so identical scenarios produce identical traces on every run.
type Harness struct {
	source *list.Array[string]
	view   *sortview.View[string]
	loop   *mainloop.Loop
	result *Result

	// label names the op currently executing, for trace attribution.
	label string
	seq   int64
}

// Run drives a scenario from start to finish and reports what happened.
//
// Each scenario runs against a fresh view on a private loop for isolation.
// The clock advances one simulated millisecond per reading, so incremental
// ticks perform a fixed amount of work regardless of wall time.
//
// Execution flow:
//  1. Build source, sorter, loop and clock
//  2. Construct the view unsorted and subscribe, so the comparator attach
//     notification lands in the trace
//  3. Attach the scenario sorter
//  4. Apply ops in order, recording every notification
//  5. Evaluate assertions and return the result
func Run(scenario *Scenario) (*Result, error) {
	srt, err := newSorter(scenario.Sorter)
	if err != nil {
		return nil, err
	}

	clock := testutil.NewAutoClock(time.Millisecond)
	loop := mainloop.New()
	defer loop.Close()

	src := list.NewArray(scenario.Items...)

	stepMS := scenario.StepMS
	if stepMS == 0 {
		stepMS = 1
	}

	opts := []sortview.Option[string]{
		sortview.WithIncremental[string](scenario.Incremental),
		sortview.WithScheduler[string](loop),
		sortview.WithNow[string](clock.Now),
		sortview.WithStepBudget[string](time.Duration(stepMS) * time.Millisecond),
		sortview.WithLogger[string](slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
	}
	if scenario.MaxMerge > 0 {
		opts = append(opts, sortview.WithMaxMergeSize[string](scenario.MaxMerge))
	}

	h := &Harness{
		source: src,
		loop:   loop,
		result: NewResult(),
	}

	// Construct unsorted first so the subscription sees the attach.
	h.view = sortview.New[string](src, nil, opts...)
	defer h.view.Close()

	cancel := h.view.Watch(h.observe)
	defer cancel()

	if srt != nil {
		h.label = "attach"
		h.view.SetSorter(srt)
	}

	for i := range scenario.Ops {
		if err := h.apply(i, &scenario.Ops[i]); err != nil {
			return nil, fmt.Errorf("failed to execute ops: %w", err)
		}
	}

	h.result.Projection = h.snapshot()
	h.result.Source = append([]string{}, h.source.Items()...)

	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions) {
		h.result.AddError(msg)
	}

	return h.result, nil
}

// apply executes a single scenario op. Bounds are validated against the
// live source so a bad scenario yields an error instead of a panic.
func (h *Harness) apply(index int, op *Op) error {
	switch {
	case op.Splice != nil:
		sp := op.Splice
		if sp.At+sp.Remove > h.source.Len() {
			return fmt.Errorf("ops[%d].splice: range [%d,%d) out of bounds for %d items",
				index, sp.At, sp.At+sp.Remove, h.source.Len())
		}
		h.label = fmt.Sprintf("splice(%d,-%d,+%d)", sp.At, sp.Remove, len(sp.Add))
		h.source.Splice(sp.At, sp.Remove, sp.Add...)

	case op.Append != nil:
		h.label = fmt.Sprintf("append(+%d)", len(op.Append.Items))
		h.source.Append(op.Append.Items...)

	case op.Remove != nil:
		count := op.Remove.Count
		if count == 0 {
			count = 1
		}
		if op.Remove.At+count > h.source.Len() {
			return fmt.Errorf("ops[%d].remove: range [%d,%d) out of bounds for %d items",
				index, op.Remove.At, op.Remove.At+count, h.source.Len())
		}
		h.label = fmt.Sprintf("remove(%d,-%d)", op.Remove.At, count)
		h.source.Remove(op.Remove.At, count)

	case op.SetSorter != nil:
		srt, err := newSorter(op.SetSorter.Sorter)
		if err != nil {
			return fmt.Errorf("ops[%d].set_sorter: %w", index, err)
		}
		h.label = "set_sorter(" + op.SetSorter.Sorter + ")"
		h.view.SetSorter(srt)

	case op.SetIncremental != nil:
		if op.SetIncremental.On {
			h.label = "set_incremental(on)"
		} else {
			h.label = "set_incremental(off)"
		}
		h.view.SetIncremental(op.SetIncremental.On)

	case op.SetSource != nil:
		h.label = fmt.Sprintf("set_source(%d)", len(op.SetSource.Items))
		arr := list.NewArray(op.SetSource.Items...)
		h.source = arr
		h.view.SetSource(arr)

	case op.Pump != nil:
		h.label = "pump"
		for t := 0; t < op.Pump.Ticks; t++ {
			if !h.loop.Pump() {
				break
			}
		}

	case op.Drain:
		h.label = "drain"
		h.loop.Drain()

	case op.Close:
		h.label = "close"
		h.view.Close()

	default:
		return fmt.Errorf("ops[%d]: no operation specified", index)
	}
	return nil
}

// observe records one notification with a post-notification snapshot.
func (h *Harness) observe(sp list.Splice) {
	h.seq++
	h.result.Trace = append(h.result.Trace, TraceEvent{
		Seq:        h.seq,
		Op:         h.label,
		Position:   sp.Position,
		Removed:    sp.Removed,
		Added:      sp.Added,
		Projection: h.snapshot(),
	})
}

// snapshot reads the full projected sequence.
func (h *Harness) snapshot() []string {
	out := make([]string, 0, h.view.Len())
	for i := 0; i < h.view.Len(); i++ {
		item, ok := h.view.At(i)
		if !ok {
			break
		}
		out = append(out, item)
	}
	return out
}

// newSorter builds the comparator for a sorter spec name.
// Returns nil for "none".
func newSorter(name string) (sorter.Interface[string], error) {
	switch name {
	case SorterNumeric:
		return sorter.NewByKey(numericKey), nil
	case SorterText:
		return sorter.NewCollated(language.Und), nil
	case SorterTextCI:
		c := sorter.NewCollated(language.Und)
		c.SetIgnoreCase(true)
		return c, nil
	case SorterReverseNumeric:
		return sorter.NewReverse[string](sorter.NewByKey(numericKey)), nil
	case SorterUnordered:
		return sorter.NewFunc[string](nil), nil
	case SorterNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown sorter %q", name)
}

// numericKey parses an item as a base-10 integer, treating unparseable
// items as zero.
func numericKey(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}
