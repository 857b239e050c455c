// Package harness runs scripted conformance scenarios against sorted
// projections.
//
// The harness drives a projection over a mutable string source through a
// scripted sequence of operations, records every change notification with a
// post-notification snapshot, and validates the trace and final state as
// executable contract tests.
//
// # Scenario Format
//
// A scenario is a YAML file:
//
//	name: scenario_name
//	description: "what this run demonstrates"
//	items: ["5", "3", "1", "4", "2"]
//	sorter: numeric
//	incremental: false
//	ops:
//	  - splice: { at: 2, remove: 1, add: ["9", "0"] }
//	  - append: { items: ["7"] }
//	  - set_sorter: { sorter: reverse-numeric }
//	  - drain: true
//	assertions:
//	  - type: final_projection
//	    items: ["9", "7", "5", "4", "2", "0"]
//	  - type: trace_count
//	    count: 3
//
// # Sorter Specs
//
// The sorter field and set_sorter op accept:
//
//   - numeric: items compared as base-10 integers
//   - text: Unicode collation (root locale)
//   - text-ci: Unicode collation, case-insensitive
//   - reverse-numeric: numeric, descending
//   - unordered: comparator present but declares no order (passthrough)
//   - none: no comparator attached
//
// # Assertion Types
//
// Assertions run after the last op:
//
//   - final_projection: the final projected sequence, in full
//   - final_source: the final source sequence, in full
//   - trace_count: the total notification count
//   - trace_event: one notification's payload and snapshot
//   - sorted: the final projection is ordered under a comparator
//
// # Deterministic Testing
//
// Scenarios execute on a private scheduler loop with a clock that advances
// one simulated millisecond per reading, so incremental ticks perform a
// fixed amount of work regardless of wall time. Identical scenarios produce
// identical traces across runs, which golden files rely on.
//
// # Usage
//
// Load and run a scenario:
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/sort_on_attach.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
