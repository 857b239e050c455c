package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sortview/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // rewrite golden files from the observed traces
	Filter string // glob over scenario base names
}

// ScenarioResult is one scenario's outcome in the report.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult aggregates a whole run.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scenario files against the projection engine",
		Long: `Run YAML scenario files through the harness and report per-scenario results.

Each scenario drives a projection through source mutations, sorter swaps,
and scheduler ticks, then checks its assertions. When a golden file exists
next to the scenario (in a golden/ subdirectory), the captured trace is
also compared against it.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  sortview test ./scenarios
  sortview test ./scenarios --filter "splice-*"
  sortview test ./scenarios --update
  sortview test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runScenarios(opts *TestOptions, dir string, cmd *cobra.Command) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}

	files, err := collectScenarios(dir, opts.Filter)
	if err != nil {
		return fmt.Errorf("failed to find scenarios: %w", err)
	}
	newFormatter(opts.RootOptions, cmd).VerboseLog("running %d scenario file(s) from %s", len(files), dir)

	if len(files) == 0 {
		if opts.Format == "json" {
			return writeReport(cmd, opts, TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	report := &testReport{w: cmd.OutOrStdout(), quiet: opts.Format == "json"}
	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		outcome := runOne(file, opts, report)
		result.Scenarios = append(result.Scenarios, outcome)
		if outcome.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	return writeReport(cmd, opts, result)
}

// collectScenarios walks dir for .yaml/.yml files, keeping those whose base
// name matches the filter glob (empty filter keeps everything).
func collectScenarios(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(filepath.Base(path), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})

	return files, err
}

// testReport prints per-scenario progress lines in text mode. In json mode
// the envelope is the only stdout output, so the report stays quiet.
type testReport struct {
	w     io.Writer
	quiet bool
}

func (r *testReport) pass(name string) {
	if !r.quiet {
		fmt.Fprintf(r.w, "✓ %s\n", name)
	}
}

func (r *testReport) passNote(name, note string) {
	if !r.quiet {
		fmt.Fprintf(r.w, "✓ %s (%s)\n", name, note)
	}
}

func (r *testReport) fail(name string, reasons ...string) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.w, "✗ %s\n", name)
	for _, reason := range reasons {
		fmt.Fprintf(r.w, "  %s\n", reason)
	}
}

// runOne loads and executes a single scenario file.
func runOne(file string, opts *TestOptions, report *testReport) ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		name := filepath.Base(file)
		report.fail(name, fmt.Sprintf("Load error: %v", err))
		return ScenarioResult{Name: name, Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)}}
	}

	result, err := harness.Run(scenario)
	if err != nil {
		report.fail(scenario.Name, fmt.Sprintf("Execution error: %v", err))
		return ScenarioResult{Name: scenario.Name, Errors: []string{fmt.Sprintf("execution failed: %v", err)}}
	}

	if opts.Update {
		if err := writeGolden(file, scenario, result); err != nil {
			report.fail(scenario.Name, fmt.Sprintf("Golden update error: %v", err))
			return ScenarioResult{Name: scenario.Name, Errors: []string{fmt.Sprintf("failed to update golden file: %v", err)}}
		}
		report.passNote(scenario.Name, "golden updated")
		return ScenarioResult{Name: scenario.Name, Pass: true}
	}

	failures := append([]string{}, result.Errors...)
	failures = append(failures, checkGolden(file, scenario, result)...)

	if len(failures) > 0 {
		report.fail(scenario.Name, failures...)
		return ScenarioResult{Name: scenario.Name, Errors: failures}
	}

	report.pass(scenario.Name)
	return ScenarioResult{Name: scenario.Name, Pass: true}
}

// goldenPath maps a scenario file to its golden trace: a golden/
// subdirectory next to the scenario, same base name.
func goldenPath(scenarioFile string) string {
	base := strings.TrimSuffix(filepath.Base(scenarioFile), filepath.Ext(scenarioFile))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", base+".golden")
}

// writeGolden renders the observed trace as the new golden file.
func writeGolden(scenarioFile string, scenario *harness.Scenario, result *harness.Result) error {
	path := goldenPath(scenarioFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, harness.RenderTrace(scenario.Name, result), 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// checkGolden compares the observed trace against the golden file, when one
// exists. A scenario without a golden validates through assertions alone.
func checkGolden(scenarioFile string, scenario *harness.Scenario, result *harness.Result) []string {
	want, err := os.ReadFile(goldenPath(scenarioFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return []string{fmt.Sprintf("golden comparison failed: %v", err)}
	}
	if !bytes.Equal(want, harness.RenderTrace(scenario.Name, result)) {
		return []string{"trace does not match golden file (run with --update to regenerate)"}
	}
	return nil
}

func writeReport(cmd *cobra.Command, opts *TestOptions, result TestResult) error {
	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if result.Failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    "E_TEST_FAILED",
				Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
			}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return err
		}
		if result.Failed > 0 {
			return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
		}
		return nil
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
