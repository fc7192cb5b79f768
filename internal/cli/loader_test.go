package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planora/planora/internal/plan"
)

// writePlanDir writes CUE sources into a fresh temp directory.
func writePlanDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

const basicPlan = `
package plan
task: "write-report": {
	name:       "Write report"
	work:       "focused"
	duration:   90
	importance: 7
	urgency:    5
}

task: "send-report": {
	name:       "Send report"
	work:       "admin"
	duration:   15
	depends_on: ["write-report"]
}

availability: monday: {
	windows: [{start: "09:00", end: "17:00"}]
	focused_cap: 240
	admin_cap:   120
}
`

// =============================================================================
// Basic Loading Tests
// =============================================================================

func TestLoadPlan_BasicTasks(t *testing.T) {
	dir := writePlanDir(t, map[string]string{"plan.cue": basicPlan})

	result, errs := LoadPlan(dir, LoadModeFailFast)
	require.Empty(t, errs)
	require.Len(t, result.Snapshot.Items, 2)
	assert.Equal(t, 1, result.FileCount)

	byID := result.Snapshot.ItemsByID()
	report := byID["write-report"]
	assert.Equal(t, "Write report", report.Name)
	assert.Equal(t, plan.KindFocused, report.WorkKind)
	assert.Equal(t, 90, report.Duration)
	assert.Equal(t, 7, report.Importance)

	send := byID["send-report"]
	assert.Equal(t, plan.KindAdmin, send.WorkKind)
	assert.Equal(t, []string{"write-report"}, send.DependsOn)

	day, ok := result.Availability.Days[time.Monday]
	require.True(t, ok)
	assert.Equal(t, 240, day.FocusedCap)
	require.Len(t, day.Windows, 1)
	assert.Equal(t, "09:00", day.Windows[0].Start)
}

func TestLoadPlan_Defaults(t *testing.T) {
	dir := writePlanDir(t, map[string]string{"plan.cue": `
package plan
task: "quick": {duration: 30}
`})

	result, errs := LoadPlan(dir, LoadModeFailFast)
	require.Empty(t, errs)
	require.Len(t, result.Snapshot.Items, 1)

	it := result.Snapshot.Items[0]
	assert.Equal(t, "quick", it.Name, "name defaults to the label")
	assert.Equal(t, plan.KindFocused, it.WorkKind)
	assert.Equal(t, 5, it.Importance)
	assert.Equal(t, 5, it.Urgency)
	assert.Equal(t, plan.StatusNotStarted, it.Status)
	require.NoError(t, it.Validate())
}

func TestLoadPlan_DeadlineParsing(t *testing.T) {
	dir := writePlanDir(t, map[string]string{"plan.cue": `
package plan
task: "ship": {
	duration:      60
	deadline:      "2026-03-06T17:00:00Z"
	deadline_kind: "hard"
}
`})

	result, errs := LoadPlan(dir, LoadModeFailFast)
	require.Empty(t, errs)

	it := result.Snapshot.Items[0]
	require.NotNil(t, it.Deadline)
	assert.Equal(t, time.Date(2026, 3, 6, 17, 0, 0, 0, time.UTC), it.Deadline.UTC())
	assert.Equal(t, plan.DeadlineHard, it.DeadlineKind)
}

// =============================================================================
// Workflow Tests
// =============================================================================

func TestLoadPlan_WorkflowStepsChain(t *testing.T) {
	dir := writePlanDir(t, map[string]string{"plan.cue": `
package plan
workflow: release: {
	name: "Ship release"
	steps: [
		{id: "draft", name: "Draft notes", duration: 60},
		{id: "review", name: "Review", work: "admin", duration: 30, async_wait: 1440},
		{id: "publish", name: "Publish", duration: 15},
	]
}
`})

	result, errs := LoadPlan(dir, LoadModeFailFast)
	require.Empty(t, errs)
	require.Len(t, result.Snapshot.Workflows, 1)
	require.Len(t, result.Snapshot.Items, 3)

	wf := result.Snapshot.Workflows[0]
	assert.Equal(t, "release", wf.ID)
	assert.Equal(t, []string{"draft", "review", "publish"}, wf.Steps)

	byID := result.Snapshot.ItemsByID()
	assert.Empty(t, byID["draft"].DependsOn)
	assert.Equal(t, []string{"draft"}, byID["review"].DependsOn, "steps chain to their predecessor")
	assert.Equal(t, []string{"review"}, byID["publish"].DependsOn)
	assert.Equal(t, 1440, byID["review"].AsyncWait)
	assert.Equal(t, 2, byID["publish"].StepIndex)
	assert.Equal(t, "release", byID["publish"].WorkflowID)
}

func TestLoadPlan_WorkflowExplicitDepsWin(t *testing.T) {
	dir := writePlanDir(t, map[string]string{"plan.cue": `
package plan
workflow: build: {
	name: "Build"
	steps: [
		{id: "a", duration: 30},
		{id: "b", duration: 30},
		{id: "c", duration: 30, depends_on: ["a"]},
	]
}
`})

	result, errs := LoadPlan(dir, LoadModeFailFast)
	require.Empty(t, errs)

	byID := result.Snapshot.ItemsByID()
	assert.Equal(t, []string{"a"}, byID["c"].DependsOn, "explicit depends_on overrides chaining")
}

func TestLoadPlan_WorkflowWithoutStepsRejected(t *testing.T) {
	dir := writePlanDir(t, map[string]string{"plan.cue": `
package plan
workflow: empty: {name: "Empty"}
`})

	_, errs := LoadPlan(dir, LoadModeFailFast)
	require.Len(t, errs, 1)
	loadErr, ok := errs[0].(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeBadWorkflow, loadErr.Code)
}

// =============================================================================
// Edge Tests
// =============================================================================

func TestLoadPlan_EdgesDefaultHard(t *testing.T) {
	dir := writePlanDir(t, map[string]string{"plan.cue": `
package plan
task: "a": {duration: 30}
task: "b": {duration: 30}
edge: [
	{from: "a", to: "b"},
	{from: "b", to: "a", block: "soft", note: "prefer this order"},
]
`})

	result, errs := LoadPlan(dir, LoadModeFailFast)
	require.Empty(t, errs)
	require.Len(t, result.Snapshot.Edges, 2)
	assert.Equal(t, plan.BlockHard, result.Snapshot.Edges[0].Block)
	assert.Equal(t, plan.BlockSoft, result.Snapshot.Edges[1].Block)
	assert.Equal(t, "prefer this order", result.Snapshot.Edges[1].Note)
}

// =============================================================================
// Error Handling Tests
// =============================================================================

func TestLoadPlan_MissingDirectory(t *testing.T) {
	_, errs := LoadPlan(filepath.Join(t.TempDir(), "nope"), LoadModeFailFast)
	require.Len(t, errs, 1)
	loadErr, ok := errs[0].(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestLoadPlan_NoCUEFiles(t *testing.T) {
	dir := writePlanDir(t, map[string]string{"readme.txt": "not a plan"})

	_, errs := LoadPlan(dir, LoadModeFailFast)
	require.Len(t, errs, 1)
	loadErr, ok := errs[0].(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNoFiles, loadErr.Code)
}

func TestLoadPlan_EmptyPlanRejected(t *testing.T) {
	dir := writePlanDir(t, map[string]string{"plan.cue": `
package plan
availability: monday: {windows: [{start: "09:00", end: "17:00"}], focused_cap: 240, admin_cap: 60}
`})

	_, errs := LoadPlan(dir, LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "no tasks or workflows")
}

func TestLoadPlan_UnknownWeekday(t *testing.T) {
	dir := writePlanDir(t, map[string]string{"plan.cue": `
package plan
task: "a": {duration: 30}
availability: someday: {windows: [{start: "09:00", end: "17:00"}], focused_cap: 60, admin_cap: 60}
`})

	_, errs := LoadPlan(dir, LoadModeCollectAll)
	require.Len(t, errs, 1)
	loadErr, ok := errs[0].(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeBadAvailability, loadErr.Code)
}

func TestLoadPlan_CollectAllGathersEverything(t *testing.T) {
	dir := writePlanDir(t, map[string]string{"plan.cue": `
package plan
task: "bad-deadline": {duration: 30, deadline: "tomorrow"}
workflow: empty: {name: "Empty"}
`})

	_, errs := LoadPlan(dir, LoadModeCollectAll)
	assert.Len(t, errs, 2)
}

func TestLoadPlan_MultipleFilesMerge(t *testing.T) {
	dir := writePlanDir(t, map[string]string{
		"tasks.cue": "package plan\n\ntask: \"a\": {duration: 30}\n",
		"hours.cue": "package plan\n\navailability: friday: {windows: [{start: \"10:00\", end: \"16:00\"}], focused_cap: 120, admin_cap: 60}\n",
	})

	result, errs := LoadPlan(dir, LoadModeFailFast)
	require.Empty(t, errs)
	assert.Equal(t, 2, result.FileCount)
	assert.Len(t, result.Snapshot.Items, 1)
	assert.Contains(t, result.Availability.Days, time.Friday)
}
