package graph

import (
	"errors"
	"fmt"
	"strings"
)

// StructuralError represents a defect in the dependency graph itself:
// a cycle, or a self-referencing edge. Structural errors abort a
// scheduling run before any allocation occurs. A corrupted graph
// cannot be partially trusted, and is never silently repaired,
// since repair could change the user's intended ordering.
type StructuralError struct {
	// Code identifies the error category.
	Code StructuralErrorCode

	// Message is a human-readable description.
	Message string

	// Path holds the offending cycle as a node sequence, when known.
	// For self-edges the path is [id, id].
	Path []string
}

// StructuralErrorCode categorizes structural errors.
type StructuralErrorCode string

const (
	// ErrCodeCycleDetected indicates a dependency cycle.
	ErrCodeCycleDetected StructuralErrorCode = "CYCLE_DETECTED"

	// ErrCodeSelfEdge indicates an item that blocks itself.
	ErrCodeSelfEdge StructuralErrorCode = "SELF_EDGE"

	// ErrCodeUnprocessedNodes indicates nodes left over after a Kahn
	// pass. Does not occur when HasCycle ran first.
	ErrCodeUnprocessedNodes StructuralErrorCode = "UNPROCESSED_NODES"
)

// Error implements the error interface.
func (e *StructuralError) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(e.Path, " -> "))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsStructuralError returns true if err is a StructuralError.
// Uses errors.As to handle wrapped errors.
func IsStructuralError(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// IsCycleError returns true if err reports a dependency cycle.
func IsCycleError(err error) bool {
	var se *StructuralError
	if errors.As(err, &se) {
		return se.Code == ErrCodeCycleDetected
	}
	return false
}

// NewCycleError creates a StructuralError for a detected cycle.
func NewCycleError(path []string) *StructuralError {
	return &StructuralError{
		Code:    ErrCodeCycleDetected,
		Message: "dependency cycle detected",
		Path:    path,
	}
}

// NewSelfEdgeError creates a StructuralError for a self-edge.
func NewSelfEdgeError(id string) *StructuralError {
	return &StructuralError{
		Code:    ErrCodeSelfEdge,
		Message: "item cannot block itself",
		Path:    []string{id, id},
	}
}
