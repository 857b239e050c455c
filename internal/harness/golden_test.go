package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// goldenScenarios lists the scenario files whose traces are pinned by
// golden files under testdata/golden. Regenerate with:
//
//	go test ./internal/harness -update
var goldenScenarios = []string{
	"sort_on_attach",
	"splice_replaces_tracked",
	"splice_replaces_pair",
	"comparator_detach_reverts",
	"text_ci_words",
	"set_source_replace",
	"removal_narrows_window",
	"append_max_pure_insert",
	"middle_insert_shifts",
	"incremental_small_drain",
	"incremental_switch_off",
	"unordered_narrows",
}

func TestRunWithGolden_Scenarios(t *testing.T) {
	for _, name := range goldenScenarios {
		name := name
		t.Run(name, func(t *testing.T) {
			path := filepath.Join("testdata", "scenarios", name+".yaml")
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestAssertGolden_ReusesResult(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "sort_on_attach.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	AssertGolden(t, scenario.Name, result)
}

func TestRenderTrace_Format(t *testing.T) {
	result := NewResult()
	result.Trace = append(result.Trace, TraceEvent{
		Seq:        1,
		Op:         "attach",
		Position:   0,
		Removed:    2,
		Added:      2,
		Projection: []string{"a", "b"},
	})
	result.Projection = []string{"a", "b"}
	result.Source = []string{"b", "a"}

	got := string(RenderTrace("demo", result))
	want := "scenario: demo\n" +
		"\n" +
		"trace:\n" +
		"  [1] attach                   (0,-2,+2) -> [a b]\n" +
		"\n" +
		"final projection: [a b]\n" +
		"final source: [b a]\n"
	assert.Equal(t, want, got)
}

func TestRenderTrace_EmptyTrace(t *testing.T) {
	result := NewResult()
	result.Projection = []string{}
	result.Source = []string{"x"}

	got := string(RenderTrace("quiet", result))
	assert.Contains(t, got, "trace:\n  (none)\n")
	assert.Contains(t, got, "final projection: []\n")
	assert.Contains(t, got, "final source: [x]\n")
}
