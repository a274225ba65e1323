package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyCompiled is returned when attempting to modify a compiled graph
	ErrAlreadyCompiled = errors.New("graph is already compiled and cannot be modified")

	// ErrNodeNotFound is returned when referencing a non-existent node
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoEntryPoint is returned when validating a graph with no entry point
	ErrNoEntryPoint = errors.New("entry point not set")

	// ErrNoEndPoint is returned when validating a graph with no path to END
	ErrNoEndPoint = errors.New("no path to END from entry point")

	// ErrMaxSteps is returned when a run exceeds its step budget
	ErrMaxSteps = errors.New("max steps reached")
)

// ValidationError represents an error that occurs during graph construction
// or validation.
type ValidationError struct {
	// Op is the operation that failed
	Op string
	// Node is the ID of the node involved (if any)
	Node string
	// Err is the underlying error
	Err error
}

func (e *ValidationError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("validation failed: %s: node '%s': %v", e.Op, e.Node, e.Err)
	}
	return fmt.Sprintf("validation failed: %s: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError
func NewValidationError(op string, node string, err error) error {
	return &ValidationError{Op: op, Node: node, Err: err}
}

// ExecutionError represents an error during the graph execution
type ExecutionError struct {
	// Phase is the execution phase where the error occurred
	Phase string
	// Node is the ID of the node being executed
	Node string
	// Err is the underlying error
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution error: %s: node '%s': %v", e.Phase, e.Node, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// NewExecutionError creates a new ExecutionError
func NewExecutionError(phase string, node string, err error) error {
	return &ExecutionError{Phase: phase, Node: node, Err: err}
}

// StateInvariantError marks a node invoked without a required input key. This
// is a graph wiring defect, fatal to the run, and is kept distinct from
// collaborator failures so operators can tell a bug from a flaky dependency.
type StateInvariantError struct {
	Node string
	Key  string
}

func (e *StateInvariantError) Error() string {
	return fmt.Sprintf("state invariant violated: node '%s' requires '%s'", e.Node, e.Key)
}

// NewStateInvariantError reports a missing required state field.
func NewStateInvariantError(node, key string) error {
	return &StateInvariantError{Node: node, Key: key}
}

// IsStateInvariant reports whether err stems from a state invariant violation.
func IsStateInvariant(err error) bool {
	var sie *StateInvariantError
	return errors.As(err, &sie)
}
