package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/planora/planora/internal/avail"
	"github.com/planora/planora/internal/plan"
)

// LoadMode controls how errors are handled during plan loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the results of loading a plan directory.
type LoadResult struct {
	Snapshot     plan.Snapshot
	Availability avail.Availability
	CUEValue     cue.Value // The raw CUE value for additional processing
	FileCount    int       // Number of CUE files found
}

// LoadError represents an error that occurred during plan loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed

	ErrCodeBadTask         = "E101" // Malformed task declaration
	ErrCodeBadWorkflow     = "E102" // Malformed workflow declaration
	ErrCodeBadEdge         = "E103" // Malformed edge declaration
	ErrCodeBadAvailability = "E104" // Malformed availability declaration
	ErrCodeBadPlan         = "E105" // Plan fails snapshot validation
)

// itemSpec is the CUE-facing shape of a task or workflow step. CUE
// decoding honors the json tags, so plan files use the same field
// names as the engine's serialized form.
type itemSpec struct {
	Name         string   `json:"name"`
	Work         string   `json:"work"`
	Duration     int      `json:"duration"`
	Importance   int      `json:"importance"`
	Urgency      int      `json:"urgency"`
	DependsOn    []string `json:"depends_on"`
	AsyncWait    int      `json:"async_wait"`
	Status       string   `json:"status"`
	Deadline     string   `json:"deadline"`
	DeadlineKind string   `json:"deadline_kind"`
}

// stepSpec is an itemSpec with an explicit identifier, used in
// workflow step lists.
type stepSpec struct {
	ID string `json:"id"`
	itemSpec
}

type edgeSpec struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Block string `json:"block"`
	Note  string `json:"note"`
}

type daySpec struct {
	Windows    []avail.Window `json:"windows"`
	Blocks     []avail.Window `json:"blocks"`
	FocusedCap int            `json:"focused_cap"`
	AdminCap   int            `json:"admin_cap"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// LoadPlan loads a plan from a directory of CUE files. Files must
// share one package clause so they merge into a single instance.
//
// A plan directory declares four top-level sections, all optional
// except that at least one task or workflow must exist:
//
//	task: <id>: {name, work, duration, importance, urgency, ...}
//	workflow: <id>: {name, steps: [{id, name, work, duration, ...}]}
//	edge: [{from, to, block, note}]
//	availability: <weekday>: {windows, blocks, focused_cap, admin_cap}
//
// Workflow steps with no explicit depends_on are chained to the
// preceding step. If mode is LoadModeFailFast, returns on first error;
// LoadModeCollectAll gathers every error before returning.
func LoadPlan(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("plan directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing plan directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := findCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{
		CUEValue:  value,
		FileCount: len(cueFiles),
	}

	var errs []error
	fail := func(e *LoadError) bool {
		errs = append(errs, e)
		return mode == LoadModeFailFast
	}

	if stop := extractTasks(value, result, fail); stop {
		return result, errs
	}
	if stop := extractWorkflows(value, result, fail); stop {
		return result, errs
	}
	if stop := extractEdges(value, result, fail); stop {
		return result, errs
	}
	if stop := extractAvailability(value, result, fail); stop {
		return result, errs
	}

	if len(result.Snapshot.Items) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no tasks or workflows found in plan"})
	}

	return result, errs
}

func extractTasks(value cue.Value, result *LoadResult, fail func(*LoadError) bool) bool {
	tasksVal := value.LookupPath(cue.ParsePath("task"))
	if !tasksVal.Exists() {
		return false
	}
	iter, err := tasksVal.Fields()
	if err != nil {
		return fail(&LoadError{Code: ErrCodeBadTask, Message: fmt.Sprintf("iterating tasks: %v", err)})
	}
	for iter.Next() {
		var spec itemSpec
		if err := iter.Value().Decode(&spec); err != nil {
			if fail(&LoadError{Code: ErrCodeBadTask, Message: fmt.Sprintf("task %s: %v", iter.Label(), err), Pos: iter.Value().Pos()}) {
				return true
			}
			continue
		}
		item, err := spec.toItem(iter.Label(), plan.ItemTask)
		if err != nil {
			if fail(&LoadError{Code: ErrCodeBadTask, Message: fmt.Sprintf("task %s: %v", iter.Label(), err), Pos: iter.Value().Pos()}) {
				return true
			}
			continue
		}
		result.Snapshot.Items = append(result.Snapshot.Items, item)
	}
	return false
}

func extractWorkflows(value cue.Value, result *LoadResult, fail func(*LoadError) bool) bool {
	wfVal := value.LookupPath(cue.ParsePath("workflow"))
	if !wfVal.Exists() {
		return false
	}
	iter, err := wfVal.Fields()
	if err != nil {
		return fail(&LoadError{Code: ErrCodeBadWorkflow, Message: fmt.Sprintf("iterating workflows: %v", err)})
	}
	for iter.Next() {
		wfID := iter.Label()
		var spec struct {
			Name  string     `json:"name"`
			Steps []stepSpec `json:"steps"`
		}
		if err := iter.Value().Decode(&spec); err != nil {
			if fail(&LoadError{Code: ErrCodeBadWorkflow, Message: fmt.Sprintf("workflow %s: %v", wfID, err), Pos: iter.Value().Pos()}) {
				return true
			}
			continue
		}
		if len(spec.Steps) == 0 {
			if fail(&LoadError{Code: ErrCodeBadWorkflow, Message: fmt.Sprintf("workflow %s: no steps", wfID), Pos: iter.Value().Pos()}) {
				return true
			}
			continue
		}

		wf := plan.Workflow{ID: wfID, Name: spec.Name}
		bad := false
		for i, st := range spec.Steps {
			if st.ID == "" {
				if fail(&LoadError{Code: ErrCodeBadWorkflow, Message: fmt.Sprintf("workflow %s: step %d has no id", wfID, i), Pos: iter.Value().Pos()}) {
					return true
				}
				bad = true
				break
			}
			item, err := st.itemSpec.toItem(st.ID, plan.ItemStep)
			if err != nil {
				if fail(&LoadError{Code: ErrCodeBadWorkflow, Message: fmt.Sprintf("workflow %s step %s: %v", wfID, st.ID, err), Pos: iter.Value().Pos()}) {
					return true
				}
				bad = true
				break
			}
			item.WorkflowID = wfID
			item.StepIndex = i
			// Steps chain sequentially unless the plan names explicit
			// dependencies.
			if len(item.DependsOn) == 0 && i > 0 {
				item.DependsOn = []string{spec.Steps[i-1].ID}
			}
			wf.Steps = append(wf.Steps, st.ID)
			result.Snapshot.Items = append(result.Snapshot.Items, item)
		}
		if !bad {
			result.Snapshot.Workflows = append(result.Snapshot.Workflows, wf)
		}
	}
	return false
}

func extractEdges(value cue.Value, result *LoadResult, fail func(*LoadError) bool) bool {
	edgesVal := value.LookupPath(cue.ParsePath("edge"))
	if !edgesVal.Exists() {
		return false
	}
	var specs []edgeSpec
	if err := edgesVal.Decode(&specs); err != nil {
		return fail(&LoadError{Code: ErrCodeBadEdge, Message: fmt.Sprintf("decoding edges: %v", err), Pos: edgesVal.Pos()})
	}
	for _, e := range specs {
		block := plan.BlockKind(e.Block)
		if e.Block == "" {
			block = plan.BlockHard
		}
		result.Snapshot.Edges = append(result.Snapshot.Edges, plan.DependencyEdge{
			From:  e.From,
			To:    e.To,
			Block: block,
			Note:  e.Note,
		})
	}
	return false
}

func extractAvailability(value cue.Value, result *LoadResult, fail func(*LoadError) bool) bool {
	availVal := value.LookupPath(cue.ParsePath("availability"))
	if !availVal.Exists() {
		return false
	}
	iter, err := availVal.Fields()
	if err != nil {
		return fail(&LoadError{Code: ErrCodeBadAvailability, Message: fmt.Sprintf("iterating availability: %v", err)})
	}
	result.Availability.Days = make(map[time.Weekday]avail.Day)
	for iter.Next() {
		wd, ok := weekdays[iter.Label()]
		if !ok {
			if fail(&LoadError{Code: ErrCodeBadAvailability, Message: fmt.Sprintf("unknown weekday %q", iter.Label()), Pos: iter.Value().Pos()}) {
				return true
			}
			continue
		}
		var spec daySpec
		if err := iter.Value().Decode(&spec); err != nil {
			if fail(&LoadError{Code: ErrCodeBadAvailability, Message: fmt.Sprintf("availability %s: %v", iter.Label(), err), Pos: iter.Value().Pos()}) {
				return true
			}
			continue
		}
		result.Availability.Days[wd] = avail.Day{
			Windows:    spec.Windows,
			Blocks:     spec.Blocks,
			FocusedCap: spec.FocusedCap,
			AdminCap:   spec.AdminCap,
		}
	}
	return false
}

// toItem applies defaults and converts the CUE-facing spec to a work
// item. Work kind defaults to focused, importance and urgency to 5,
// status to not_started.
func (s *itemSpec) toItem(id string, kind plan.ItemKind) (plan.WorkItem, error) {
	item := plan.WorkItem{
		ID:         id,
		Name:       s.Name,
		Kind:       kind,
		WorkKind:   plan.WorkKind(s.Work),
		Duration:   s.Duration,
		Importance: s.Importance,
		Urgency:    s.Urgency,
		DependsOn:  s.DependsOn,
		AsyncWait:  s.AsyncWait,
		Status:     plan.Status(s.Status),
	}
	if s.Work == "" {
		item.WorkKind = plan.KindFocused
	}
	if s.Importance == 0 {
		item.Importance = 5
	}
	if s.Urgency == 0 {
		item.Urgency = 5
	}
	if s.Status == "" {
		item.Status = plan.StatusNotStarted
	}
	if s.Name == "" {
		item.Name = id
	}
	if s.Deadline != "" {
		dl, err := time.Parse(time.RFC3339, s.Deadline)
		if err != nil {
			return plan.WorkItem{}, fmt.Errorf("invalid deadline %q: %w", s.Deadline, err)
		}
		item.Deadline = &dl
		item.DeadlineKind = plan.DeadlineKind(s.DeadlineKind)
		if s.DeadlineKind == "" {
			item.DeadlineKind = plan.DeadlineSoft
		}
	}
	return item, nil
}

// findCUEFiles walks the directory and returns all .cue file paths,
// sorted for deterministic reporting.
func findCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}
