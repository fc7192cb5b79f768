// Package harness provides scenario-based conformance testing for the
// scheduling engine.
//
// The harness loads a plan and availability from a YAML scenario file,
// executes a scheduling run, and validates assertions against the
// resulting schedule as executable contract tests.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	mode: optimal
//	horizon:
//	  start: 2026-03-02
//	  days: 7
//	items:
//	  - id: write-report
//	    work: focused
//	    duration: 90
//	    importance: 7
//	    urgency: 5
//	  - id: send-report
//	    work: admin
//	    duration: 15
//	    depends_on: [write-report]
//	availability:
//	  monday:
//	    windows: [{start: "09:00", end: "17:00"}]
//	    focused_cap: 240
//	    admin_cap: 120
//	assertions:
//	  - type: scheduled
//	    item: write-report
//	    day: 2026-03-02
//	    start: "09:00"
//	  - type: order
//	    items: [write-report, send-report]
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - scheduled: the item has a slot, optionally at a given day/start
//   - unscheduled: the item was not placed, optionally for a reason
//   - order: the named items appear in the given start-time order
//   - conflict_count: the run produced exactly N conflicts
//   - warning: a warning with the given code is present
//
// # Deterministic Testing
//
// The engine is a pure function of the scenario: fixed horizon start,
// no wall clock, no random identifiers. Identical scenarios produce
// identical schedules, which makes golden snapshot comparison safe.
package harness
