package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError describes one failed assertion. It carries the whole
// notification trace, since which events fired (and in what order) is
// usually the first thing a failure investigation needs.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %-24s (%d,-%d,+%d) -> %v\n",
			event.Seq, event.Op, event.Position, event.Removed, event.Added, event.Projection)
	}

	return buf.String()
}

// assertFinalProjection checks the final projected sequence.
func assertFinalProjection(result *Result, assertion Assertion) error {
	if slices.Equal(result.Projection, assertion.Items) {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalProjection,
		Expected: fmt.Sprintf("%v", assertion.Items),
		Actual:   fmt.Sprintf("%v", result.Projection),
		Trace:    result.Trace,
	}
}

// assertFinalSource checks the final source sequence.
func assertFinalSource(result *Result, assertion Assertion) error {
	if slices.Equal(result.Source, assertion.Items) {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalSource,
		Expected: fmt.Sprintf("%v", assertion.Items),
		Actual:   fmt.Sprintf("%v", result.Source),
		Trace:    result.Trace,
	}
}

// assertTraceCount checks the total number of notifications.
func assertTraceCount(result *Result, assertion Assertion) error {
	if len(result.Trace) == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%d notifications", assertion.Count),
		Actual:   fmt.Sprintf("%d notifications", len(result.Trace)),
		Trace:    result.Trace,
	}
}

// assertTraceEvent checks one notification's payload and snapshot.
// Only fields present in the assertion are compared.
func assertTraceEvent(result *Result, assertion Assertion) error {
	if assertion.Seq > int64(len(result.Trace)) {
		return &AssertionError{
			Type:     AssertTraceEvent,
			Expected: fmt.Sprintf("at least %d notifications", assertion.Seq),
			Actual:   fmt.Sprintf("%d notifications", len(result.Trace)),
			Trace:    result.Trace,
		}
	}

	event := result.Trace[assertion.Seq-1]
	fail := func(field string, want, got any) error {
		return &AssertionError{
			Type:     AssertTraceEvent,
			Expected: fmt.Sprintf("event %d %s = %v", assertion.Seq, field, want),
			Actual:   fmt.Sprintf("event %d %s = %v", assertion.Seq, field, got),
			Trace:    result.Trace,
		}
	}

	if assertion.Position != nil && event.Position != *assertion.Position {
		return fail("position", *assertion.Position, event.Position)
	}
	if assertion.Removed != nil && event.Removed != *assertion.Removed {
		return fail("removed", *assertion.Removed, event.Removed)
	}
	if assertion.Added != nil && event.Added != *assertion.Added {
		return fail("added", *assertion.Added, event.Added)
	}
	if assertion.Projection != nil && !slices.Equal(event.Projection, assertion.Projection) {
		return fail("projection", assertion.Projection, event.Projection)
	}
	return nil
}

// assertSorted checks that the final projection is non-decreasing under
// the named comparator. Useful for large scenarios where writing out the
// full expected sequence would obscure the intent.
func assertSorted(result *Result, assertion Assertion) error {
	srt, err := newSorter(assertion.Sorter)
	if err != nil {
		return err
	}

	for i := 1; i < len(result.Projection); i++ {
		if srt.Compare(result.Projection[i-1], result.Projection[i]) > 0 {
			return &AssertionError{
				Type:     AssertSorted,
				Expected: fmt.Sprintf("projection non-decreasing under %s", assertion.Sorter),
				Actual: fmt.Sprintf("projection[%d]=%q > projection[%d]=%q",
					i-1, result.Projection[i-1], i, result.Projection[i]),
				Trace: result.Trace,
			}
		}
	}
	return nil
}

// EvaluateAssertions checks every assertion against the result and
// collects the failure messages. An empty return means all passed.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertFinalProjection:
			err = assertFinalProjection(result, assertion)
		case AssertFinalSource:
			err = assertFinalSource(result, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result, assertion)
		case AssertTraceEvent:
			err = assertTraceEvent(result, assertion)
		case AssertSorted:
			err = assertSorted(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
