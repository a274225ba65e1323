package graph

import (
	"context"
	"time"
)

// Constants for special nodes
const (
	START = "START"
	END   = "END"
)

// State represents the base interface for any state type.
type State interface {
	// Validate validates the state
	Validate() error
}

// Mergeable combines a partial update into a state, field by field, according
// to the per-field policy the state type declares (replace or append).
type Mergeable[T any] interface {
	Merge(T) T
}

// GraphState combines both interfaces for graph states.
type GraphState[T any] interface {
	State
	Mergeable[T]
}

// Status reports how a node invocation finished.
type Status string

const (
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	// StatusPending means the node raised an interruption: the run halts and
	// the thread awaits more user input before the node is re-invoked.
	StatusPending Status = "pending"
)

// NodeResponse encapsulates a node execution result: a partial state to be
// merged, plus either normal completion or an interruption.
type NodeResponse[T GraphState[T]] struct {
	State     T
	Status    Status
	Interrupt *Interruption[T]
}

// Interruption is a node's request to pause the run and await additional user
// input. The executor fills NodeID and State with the post-merge snapshot
// before returning it to the caller.
type Interruption[T GraphState[T]] struct {
	NodeID  string
	State   T
	Payload map[string]any
}

// Interrupt builds a pending NodeResponse carrying the given partial state and
// caller-visible payload.
func Interrupt[T GraphState[T]](delta T, payload map[string]any) NodeResponse[T] {
	return NodeResponse[T]{
		State:     delta,
		Status:    StatusPending,
		Interrupt: &Interruption[T]{Payload: payload},
	}
}

// NodeFunc is the unit of work attached to a node.
type NodeFunc[T GraphState[T]] func(context.Context, T, Config[T]) (NodeResponse[T], error)

// NodeSpec represents a node's specification
type NodeSpec[T GraphState[T]] struct {
	Name        string
	Function    NodeFunc[T]
	Metadata    map[string]any
	RetryPolicy *RetryPolicy
}

// RetryPolicy defines how a node should handle failures
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Edge represents a connection between nodes
type Edge struct {
	From     string
	To       string
	Metadata map[string]any
}

// Branch represents a conditional branch in the graph
type Branch[T GraphState[T]] struct {
	Path     func(context.Context, T, Config[T]) string
	Then     string
	Metadata map[string]any
}

// RunStatus classifies the outcome of one executor run.
type RunStatus string

const (
	RunCompleted   RunStatus = "completed"
	RunInterrupted RunStatus = "interrupted"
)

// Outcome is the explicit result of a run: either the terminal node was
// reached (Completed) or a node suspended the thread (Interrupted). Failures
// are reported through the error return, never inferred from panics.
type Outcome[T GraphState[T]] struct {
	Status       RunStatus
	State        T
	Interruption *Interruption[T]
}

// Interrupted reports whether the run halted awaiting more user input.
func (o Outcome[T]) Interrupted() bool {
	return o.Status == RunInterrupted
}
