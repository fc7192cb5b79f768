package plan

import (
	"errors"
	"fmt"
)

// ValidationError reports a structural problem with a snapshot.
//
// Validation errors are always reported to the caller and never
// silently repaired: dropping or rewriting an item behind the user's
// back could change their intended ordering.
type ValidationError struct {
	Code    ValidationErrorCode
	ItemID  string
	Message string
}

// ValidationErrorCode categorizes validation errors.
type ValidationErrorCode string

const (
	// ErrCodeDuplicateID indicates two items share an identifier.
	ErrCodeDuplicateID ValidationErrorCode = "DUPLICATE_ID"

	// ErrCodeInvalidDuration indicates a non-positive duration.
	ErrCodeInvalidDuration ValidationErrorCode = "INVALID_DURATION"

	// ErrCodeInvalidScore indicates importance/urgency outside 1-10.
	ErrCodeInvalidScore ValidationErrorCode = "INVALID_SCORE"

	// ErrCodeInvalidEnum indicates an unknown kind or status value.
	ErrCodeInvalidEnum ValidationErrorCode = "INVALID_ENUM"

	// ErrCodeSelfEdge indicates an item depending on itself.
	ErrCodeSelfEdge ValidationErrorCode = "SELF_EDGE"

	// ErrCodeDuplicateStepIndex indicates two steps of one workflow
	// sharing a step index.
	ErrCodeDuplicateStepIndex ValidationErrorCode = "DUPLICATE_STEP_INDEX"
)

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.ItemID != "" {
		return fmt.Sprintf("%s: %s (item=%s)", e.Code, e.Message, e.ItemID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsValidationError returns true if err is a ValidationError.
// Uses errors.As to handle wrapped errors.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks a single item's fields.
func (w *WorkItem) Validate() error {
	if w.ID == "" {
		return &ValidationError{Code: ErrCodeInvalidEnum, Message: "item id must not be empty"}
	}
	if w.Duration <= 0 {
		return &ValidationError{
			Code:    ErrCodeInvalidDuration,
			ItemID:  w.ID,
			Message: fmt.Sprintf("duration must be positive, got %d", w.Duration),
		}
	}
	if w.Importance < 1 || w.Importance > 10 {
		return &ValidationError{
			Code:    ErrCodeInvalidScore,
			ItemID:  w.ID,
			Message: fmt.Sprintf("importance must be 1-10, got %d", w.Importance),
		}
	}
	if w.Urgency < 1 || w.Urgency > 10 {
		return &ValidationError{
			Code:    ErrCodeInvalidScore,
			ItemID:  w.ID,
			Message: fmt.Sprintf("urgency must be 1-10, got %d", w.Urgency),
		}
	}
	if w.AsyncWait < 0 {
		return &ValidationError{
			Code:    ErrCodeInvalidDuration,
			ItemID:  w.ID,
			Message: fmt.Sprintf("async wait must not be negative, got %d", w.AsyncWait),
		}
	}
	if !ValidWorkKinds[w.WorkKind] {
		return &ValidationError{
			Code:    ErrCodeInvalidEnum,
			ItemID:  w.ID,
			Message: fmt.Sprintf("unknown work kind %q", w.WorkKind),
		}
	}
	if w.Kind != ItemTask && w.Kind != ItemStep {
		return &ValidationError{
			Code:    ErrCodeInvalidEnum,
			ItemID:  w.ID,
			Message: fmt.Sprintf("unknown item kind %q", w.Kind),
		}
	}
	if !ValidStatuses[w.Status] {
		return &ValidationError{
			Code:    ErrCodeInvalidEnum,
			ItemID:  w.ID,
			Message: fmt.Sprintf("unknown status %q", w.Status),
		}
	}
	if w.Deadline != nil && w.DeadlineKind != DeadlineHard && w.DeadlineKind != DeadlineSoft {
		return &ValidationError{
			Code:    ErrCodeInvalidEnum,
			ItemID:  w.ID,
			Message: fmt.Sprintf("deadline set but deadline kind %q is not hard or soft", w.DeadlineKind),
		}
	}
	for _, dep := range w.DependsOn {
		if dep == w.ID {
			return &ValidationError{
				Code:    ErrCodeSelfEdge,
				ItemID:  w.ID,
				Message: "item depends on itself",
			}
		}
	}
	return nil
}

// Validate checks the snapshot as a whole: per-item validity, unique
// identifiers, self-edges in explicit edge records, and step index
// uniqueness within each workflow.
func (s *Snapshot) Validate() error {
	seen := make(map[string]bool, len(s.Items))
	for i := range s.Items {
		it := &s.Items[i]
		if err := it.Validate(); err != nil {
			return err
		}
		if seen[it.ID] {
			return &ValidationError{
				Code:    ErrCodeDuplicateID,
				ItemID:  it.ID,
				Message: "duplicate item id",
			}
		}
		seen[it.ID] = true
	}

	for _, e := range s.Edges {
		if e.From == e.To {
			return &ValidationError{
				Code:    ErrCodeSelfEdge,
				ItemID:  e.From,
				Message: "edge connects item to itself",
			}
		}
		if e.Block != BlockHard && e.Block != BlockSoft {
			return &ValidationError{
				Code:    ErrCodeInvalidEnum,
				ItemID:  e.From,
				Message: fmt.Sprintf("unknown block kind %q", e.Block),
			}
		}
	}

	for _, wf := range s.Workflows {
		indexes := make(map[int]string)
		for _, step := range s.StepsOf(&wf) {
			if other, dup := indexes[step.StepIndex]; dup {
				return &ValidationError{
					Code:    ErrCodeDuplicateStepIndex,
					ItemID:  step.ID,
					Message: fmt.Sprintf("step index %d already used by %s in workflow %s", step.StepIndex, other, wf.ID),
				}
			}
			indexes[step.StepIndex] = step.ID
		}
	}

	return nil
}
