package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validItem(id string) WorkItem {
	return WorkItem{
		ID:         id,
		Name:       "item " + id,
		Kind:       ItemTask,
		WorkKind:   KindFocused,
		Duration:   30,
		Importance: 5,
		Urgency:    5,
		Status:     StatusNotStarted,
	}
}

// =============================================================================
// WorkItem Tests
// =============================================================================

func TestWorkItem_Priority(t *testing.T) {
	it := validItem("a")
	it.Importance = 7
	it.Urgency = 3
	assert.Equal(t, 21, it.Priority())
}

func TestWorkItem_Validate_Valid(t *testing.T) {
	it := validItem("a")
	require.NoError(t, it.Validate())
}

func TestWorkItem_Validate_NonPositiveDuration(t *testing.T) {
	it := validItem("a")
	it.Duration = 0

	err := it.Validate()
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrCodeInvalidDuration, ve.Code)
	assert.Equal(t, "a", ve.ItemID)
}

func TestWorkItem_Validate_ScoreBounds(t *testing.T) {
	for _, score := range []int{0, 11, -3} {
		it := validItem("a")
		it.Importance = score

		var ve *ValidationError
		require.ErrorAs(t, it.Validate(), &ve)
		assert.Equal(t, ErrCodeInvalidScore, ve.Code)
	}
}

func TestWorkItem_Validate_SelfDependency(t *testing.T) {
	it := validItem("a")
	it.DependsOn = []string{"a"}

	var ve *ValidationError
	require.ErrorAs(t, it.Validate(), &ve)
	assert.Equal(t, ErrCodeSelfEdge, ve.Code)
}

func TestWorkItem_Validate_DeadlineNeedsKind(t *testing.T) {
	it := validItem("a")
	dl := time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC)
	it.Deadline = &dl

	var ve *ValidationError
	require.ErrorAs(t, it.Validate(), &ve)
	assert.Equal(t, ErrCodeInvalidEnum, ve.Code)

	it.DeadlineKind = DeadlineHard
	require.NoError(t, it.Validate())
}

// =============================================================================
// Snapshot Validation Tests
// =============================================================================

func TestSnapshot_Validate_DuplicateID(t *testing.T) {
	s := Snapshot{Items: []WorkItem{validItem("a"), validItem("a")}}

	var ve *ValidationError
	require.ErrorAs(t, s.Validate(), &ve)
	assert.Equal(t, ErrCodeDuplicateID, ve.Code)
}

func TestSnapshot_Validate_SelfEdge(t *testing.T) {
	s := Snapshot{
		Items: []WorkItem{validItem("a")},
		Edges: []DependencyEdge{{From: "a", To: "a", Block: BlockHard}},
	}

	var ve *ValidationError
	require.ErrorAs(t, s.Validate(), &ve)
	assert.Equal(t, ErrCodeSelfEdge, ve.Code)
}

func TestSnapshot_Validate_DuplicateStepIndex(t *testing.T) {
	s1 := validItem("s1")
	s1.Kind = ItemStep
	s1.WorkflowID = "wf"
	s1.StepIndex = 1
	s2 := validItem("s2")
	s2.Kind = ItemStep
	s2.WorkflowID = "wf"
	s2.StepIndex = 1

	s := Snapshot{
		Items:     []WorkItem{s1, s2},
		Workflows: []Workflow{{ID: "wf", Steps: []string{"s1", "s2"}}},
	}

	var ve *ValidationError
	require.ErrorAs(t, s.Validate(), &ve)
	assert.Equal(t, ErrCodeDuplicateStepIndex, ve.Code)
}

func TestSnapshot_Validate_UnknownBlockKind(t *testing.T) {
	s := Snapshot{
		Items: []WorkItem{validItem("a"), validItem("b")},
		Edges: []DependencyEdge{{From: "a", To: "b", Block: "firm"}},
	}

	var ve *ValidationError
	require.ErrorAs(t, s.Validate(), &ve)
	assert.Equal(t, ErrCodeInvalidEnum, ve.Code)
}
