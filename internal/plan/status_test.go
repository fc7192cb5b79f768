package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workflowSnapshot(statuses ...Status) Snapshot {
	s := Snapshot{Workflows: []Workflow{{ID: "wf", Name: "Release"}}}
	prev := ""
	for i, st := range statuses {
		id := string(rune('a' + i))
		it := validItem(id)
		it.Kind = ItemStep
		it.WorkflowID = "wf"
		it.StepIndex = i
		it.Status = st
		if prev != "" {
			it.DependsOn = []string{prev}
		}
		prev = id
		s.Items = append(s.Items, it)
		s.Workflows[0].Steps = append(s.Workflows[0].Steps, id)
	}
	return s
}

// =============================================================================
// Derived Workflow Status Tests
// =============================================================================

func TestWorkflowStatus_NoSteps(t *testing.T) {
	s := workflowSnapshot()
	assert.Equal(t, StatusNotStarted, s.WorkflowStatus(&s.Workflows[0]))
}

func TestWorkflowStatus_AllPending(t *testing.T) {
	s := workflowSnapshot(StatusNotStarted, StatusNotStarted)
	assert.Equal(t, StatusNotStarted, s.WorkflowStatus(&s.Workflows[0]))
}

func TestWorkflowStatus_AnyInProgress(t *testing.T) {
	s := workflowSnapshot(StatusCompleted, StatusInProgress, StatusNotStarted)
	assert.Equal(t, StatusInProgress, s.WorkflowStatus(&s.Workflows[0]))
}

func TestWorkflowStatus_WaitingCountsAsInProgress(t *testing.T) {
	s := workflowSnapshot(StatusWaiting, StatusNotStarted)
	assert.Equal(t, StatusInProgress, s.WorkflowStatus(&s.Workflows[0]))
}

func TestWorkflowStatus_AllCompleted(t *testing.T) {
	s := workflowSnapshot(StatusCompleted, StatusCompleted)
	assert.Equal(t, StatusCompleted, s.WorkflowStatus(&s.Workflows[0]))
}

func TestWorkflowStatus_SkippedStepsAreInert(t *testing.T) {
	s := workflowSnapshot(StatusCompleted, StatusSkipped)
	assert.Equal(t, StatusCompleted, s.WorkflowStatus(&s.Workflows[0]))
}

func TestWorkflowStatus_PartialCompletion(t *testing.T) {
	s := workflowSnapshot(StatusCompleted, StatusNotStarted)
	assert.Equal(t, StatusInProgress, s.WorkflowStatus(&s.Workflows[0]))
}

// =============================================================================
// Workflow Lifecycle Tests
// =============================================================================

func TestStartWorkflow_MarksFirstEligibleStep(t *testing.T) {
	s := workflowSnapshot(StatusNotStarted, StatusNotStarted)

	out := s.StartWorkflow("wf")
	byID := out.ItemsByID()
	assert.Equal(t, StatusInProgress, byID["a"].Status)
	assert.Equal(t, StatusNotStarted, byID["b"].Status)
}

func TestStartWorkflow_SkipsBlockedSteps(t *testing.T) {
	s := workflowSnapshot(StatusCompleted, StatusNotStarted, StatusNotStarted)

	out := s.StartWorkflow("wf")
	byID := out.ItemsByID()
	// Step b's predecessor (a) is completed, so b is the first eligible step.
	assert.Equal(t, StatusInProgress, byID["b"].Status)
	assert.Equal(t, StatusNotStarted, byID["c"].Status)
}

func TestStartWorkflow_DoesNotMutateInput(t *testing.T) {
	s := workflowSnapshot(StatusNotStarted)

	_ = s.StartWorkflow("wf")
	require.Equal(t, StatusNotStarted, s.Items[0].Status, "input snapshot must not be mutated")
}

func TestPauseWorkflow_RevertsInProgress(t *testing.T) {
	s := workflowSnapshot(StatusCompleted, StatusInProgress)

	out := s.PauseWorkflow("wf")
	byID := out.ItemsByID()
	assert.Equal(t, StatusCompleted, byID["a"].Status, "completed steps keep their state")
	assert.Equal(t, StatusNotStarted, byID["b"].Status)
}

func TestResetWorkflow_ClearsAllStepState(t *testing.T) {
	s := workflowSnapshot(StatusCompleted, StatusWaiting, StatusSkipped)

	out := s.ResetWorkflow("wf")
	for _, it := range out.Items {
		assert.Equal(t, StatusNotStarted, it.Status)
	}
	// Original untouched.
	assert.Equal(t, StatusCompleted, s.Items[0].Status)
}
