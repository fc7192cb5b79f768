package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/planora/planora/internal/avail"
	"github.com/planora/planora/internal/plan"
	"github.com/planora/planora/internal/scheduler"
)

// Scenario defines one engine conformance test: a plan, an
// availability declaration, a horizon, and assertions on the schedule
// the engine must produce.
type Scenario struct {
	// Name uniquely identifies this scenario. Also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Mode is the scheduling mode; defaults to optimal.
	Mode string `yaml:"mode,omitempty"`

	// Horizon is the planning window.
	Horizon HorizonDef `yaml:"horizon"`

	// Items are the work items of the plan.
	Items []ItemDef `yaml:"items"`

	// Workflows optionally declares workflow membership for steps.
	Workflows []WorkflowDef `yaml:"workflows,omitempty"`

	// Edges optionally declares explicit cross-item edges.
	Edges []EdgeDef `yaml:"edges,omitempty"`

	// Availability maps weekday names to declared hours.
	Availability map[string]DayDef `yaml:"availability"`

	// Placements drive manual-mode scenarios.
	Placements []PlacementDef `yaml:"placements,omitempty"`

	// Assertions validate the resulting schedule.
	Assertions []Assertion `yaml:"assertions"`
}

// HorizonDef is the YAML shape of a planning horizon.
type HorizonDef struct {
	Start string `yaml:"start"` // YYYY-MM-DD
	Days  int    `yaml:"days"`
}

// ItemDef is the YAML shape of a work item.
type ItemDef struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name,omitempty"`
	Work         string   `yaml:"work,omitempty"`
	Duration     int      `yaml:"duration"`
	Importance   int      `yaml:"importance,omitempty"`
	Urgency      int      `yaml:"urgency,omitempty"`
	DependsOn    []string `yaml:"depends_on,omitempty"`
	AsyncWait    int      `yaml:"async_wait,omitempty"`
	Status       string   `yaml:"status,omitempty"`
	Workflow     string   `yaml:"workflow,omitempty"`
	StepIndex    int      `yaml:"step_index,omitempty"`
	Deadline     string   `yaml:"deadline,omitempty"`
	DeadlineKind string   `yaml:"deadline_kind,omitempty"`
}

// WorkflowDef is the YAML shape of a workflow declaration.
type WorkflowDef struct {
	ID    string   `yaml:"id"`
	Name  string   `yaml:"name,omitempty"`
	Steps []string `yaml:"steps"`
}

// EdgeDef is the YAML shape of an explicit dependency edge.
type EdgeDef struct {
	From  string `yaml:"from"`
	To    string `yaml:"to"`
	Block string `yaml:"block,omitempty"`
	Note  string `yaml:"note,omitempty"`
}

// WindowDef is a HH:MM interval.
type WindowDef struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// DayDef is the YAML shape of one weekday's availability.
type DayDef struct {
	Windows    []WindowDef `yaml:"windows"`
	Blocks     []WindowDef `yaml:"blocks,omitempty"`
	FocusedCap int         `yaml:"focused_cap"`
	AdminCap   int         `yaml:"admin_cap"`
}

// PlacementDef is the YAML shape of a manual placement request.
type PlacementDef struct {
	Item  string `yaml:"item"`
	Start string `yaml:"start"` // RFC 3339
}

// Assertion validates one aspect of the schedule.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Item names the subject item (scheduled, unscheduled).
	Item string `yaml:"item,omitempty"`

	// Day is the expected availability day YYYY-MM-DD (scheduled).
	Day string `yaml:"day,omitempty"`

	// Start is the expected HH:MM start (scheduled).
	Start string `yaml:"start,omitempty"`

	// Waiting asserts the slot carries an async wait (scheduled).
	Waiting bool `yaml:"waiting,omitempty"`

	// Reason is the expected unscheduled reason (unscheduled).
	Reason string `yaml:"reason,omitempty"`

	// Items is the expected start order (order).
	Items []string `yaml:"items,omitempty"`

	// Count is the expected number of conflicts (conflict_count).
	Count int `yaml:"count,omitempty"`

	// Code is the expected warning code (warning).
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertScheduled     = "scheduled"
	AssertUnscheduled   = "unscheduled"
	AssertOrder         = "order"
	AssertConflictCount = "conflict_count"
	AssertWarning       = "warning"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected so a typo fails loudly instead of silently passing.
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

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Items) == 0 {
		return fmt.Errorf("items list is required and must be non-empty")
	}
	if s.Horizon.Start == "" || s.Horizon.Days <= 0 {
		return fmt.Errorf("horizon requires start and a positive days")
	}
	if _, err := time.Parse("2006-01-02", s.Horizon.Start); err != nil {
		return fmt.Errorf("horizon.start: %w", err)
	}
	if len(s.Availability) == 0 {
		return fmt.Errorf("availability is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, it := range s.Items {
		if it.ID == "" {
			return fmt.Errorf("items[%d]: id is required", i)
		}
	}
	for day := range s.Availability {
		if _, ok := weekdayNames[day]; !ok {
			return fmt.Errorf("availability: unknown weekday %q", day)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertScheduled, AssertUnscheduled:
		if a.Item == "" {
			return fmt.Errorf("assertions[%d]: item is required for %s", index, a.Type)
		}
	case AssertOrder:
		if len(a.Items) < 2 {
			return fmt.Errorf("assertions[%d]: order needs at least two items", index)
		}
	case AssertConflictCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertWarning:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for warning", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// buildRequest converts the scenario to an engine request.
func (s *Scenario) buildRequest() (scheduler.Request, error) {
	snapshot := plan.Snapshot{}
	for _, def := range s.Items {
		item, err := def.toItem()
		if err != nil {
			return scheduler.Request{}, err
		}
		snapshot.Items = append(snapshot.Items, item)
	}
	for _, wf := range s.Workflows {
		snapshot.Workflows = append(snapshot.Workflows, plan.Workflow{
			ID: wf.ID, Name: wf.Name, Steps: wf.Steps,
		})
	}
	for _, e := range s.Edges {
		block := plan.BlockKind(e.Block)
		if e.Block == "" {
			block = plan.BlockHard
		}
		snapshot.Edges = append(snapshot.Edges, plan.DependencyEdge{
			From: e.From, To: e.To, Block: block, Note: e.Note,
		})
	}

	availability := avail.Availability{Days: make(map[time.Weekday]avail.Day)}
	for name, def := range s.Availability {
		day := avail.Day{FocusedCap: def.FocusedCap, AdminCap: def.AdminCap}
		for _, w := range def.Windows {
			day.Windows = append(day.Windows, avail.Window{Start: w.Start, End: w.End})
		}
		for _, b := range def.Blocks {
			day.Blocks = append(day.Blocks, avail.Window{Start: b.Start, End: b.End})
		}
		availability.Days[weekdayNames[name]] = day
	}

	start, err := time.Parse("2006-01-02", s.Horizon.Start)
	if err != nil {
		return scheduler.Request{}, err
	}

	mode := scheduler.Mode(s.Mode)
	if s.Mode == "" {
		mode = scheduler.ModeOptimal
	}

	req := scheduler.Request{
		Snapshot:     snapshot,
		Availability: availability,
		Mode:         mode,
		Horizon:      avail.Horizon{Start: start, Days: s.Horizon.Days},
	}
	for _, p := range s.Placements {
		at, err := time.Parse(time.RFC3339, p.Start)
		if err != nil {
			return scheduler.Request{}, fmt.Errorf("placement %s: %w", p.Item, err)
		}
		req.Placements = append(req.Placements, scheduler.Placement{ItemID: p.Item, Start: at})
	}
	return req, nil
}

// toItem applies the same defaults as the CUE plan loader.
func (d *ItemDef) toItem() (plan.WorkItem, error) {
	item := plan.WorkItem{
		ID:         d.ID,
		Name:       d.Name,
		Kind:       plan.ItemTask,
		WorkKind:   plan.WorkKind(d.Work),
		Duration:   d.Duration,
		Importance: d.Importance,
		Urgency:    d.Urgency,
		DependsOn:  d.DependsOn,
		AsyncWait:  d.AsyncWait,
		Status:     plan.Status(d.Status),
		WorkflowID: d.Workflow,
		StepIndex:  d.StepIndex,
	}
	if d.Workflow != "" {
		item.Kind = plan.ItemStep
	}
	if d.Name == "" {
		item.Name = d.ID
	}
	if d.Work == "" {
		item.WorkKind = plan.KindFocused
	}
	if d.Importance == 0 {
		item.Importance = 5
	}
	if d.Urgency == 0 {
		item.Urgency = 5
	}
	if d.Status == "" {
		item.Status = plan.StatusNotStarted
	}
	if d.Deadline != "" {
		dl, err := time.Parse(time.RFC3339, d.Deadline)
		if err != nil {
			return plan.WorkItem{}, fmt.Errorf("item %s: invalid deadline: %w", d.ID, err)
		}
		item.Deadline = &dl
		item.DeadlineKind = plan.DeadlineKind(d.DeadlineKind)
		if d.DeadlineKind == "" {
			item.DeadlineKind = plan.DeadlineSoft
		}
	}
	return item, nil
}
