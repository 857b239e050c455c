package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RenderTrace produces the canonical text rendering of a scenario result.
// The format is line-oriented so golden diffs point at the exact divergent
// notification. The CLI test command uses the same rendering for its golden
// comparison, so fixtures written by either side stay interchangeable.
func RenderTrace(name string, result *Result) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "scenario: %s\n\n", name)

	fmt.Fprintf(&buf, "trace:\n")
	if len(result.Trace) == 0 {
		fmt.Fprintf(&buf, "  (none)\n")
	}
	for _, event := range result.Trace {
		fmt.Fprintf(&buf, "  [%d] %-24s (%d,-%d,+%d) -> %v\n",
			event.Seq, event.Op, event.Position, event.Removed, event.Added, event.Projection)
	}

	fmt.Fprintf(&buf, "\nfinal projection: %v\n", result.Projection)
	fmt.Fprintf(&buf, "final source: %v\n", result.Source)

	return buf.Bytes()
}

// RunWithGolden runs a scenario and asserts its rendered trace against
// testdata/golden/{scenario.Name}.golden via goldie, so -update
// regenerates fixtures. A non-nil return means the scenario itself
// failed to execute; a trace mismatch fails the test through t.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, RenderTrace(scenario.Name, result))

	return nil
}

// AssertGolden compares an already-run result against a golden file.
// Useful when a test needs to inspect the result and compare the trace
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, RenderTrace(scenarioName, result))
}
