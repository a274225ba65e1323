package graph

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultMaxSteps = 20
	defaultTimeout  = 60 * time.Second
)

// Config represents runtime configuration for one graph execution.
type Config[T GraphState[T]] struct {
	GraphID      string          // Unique identifier for the graph
	ThreadID     string          // Unique identifier for this conversation thread
	MaxSteps     int             // Maximum number of steps to execute
	Timeout      time.Duration   // Wall-clock budget for the run
	Checkpointer Checkpointer[T] // Optional checkpointer for state persistence
	Configurable map[string]any  // Additional configuration parameters
	Logger       *zap.Logger
	// Resuming is set by the executor when the run continues a suspended
	// thread, so the resuming node can distinguish "interrupted, now
	// continuing" from "first visit".
	Resuming bool
}

func newConfig[T GraphState[T]](graphID string, opt ...CompilationOption[T]) Config[T] {
	cfg := Config[T]{
		GraphID:  graphID,
		ThreadID: uuid.New().String(), // generate default thread ID
		MaxSteps: defaultMaxSteps,
		Timeout:  defaultTimeout,
		Logger:   zap.NewNop(),
	}
	for _, o := range opt {
		o(&cfg)
	}
	return cfg
}

// CompilationOption configures a compiled graph.
type CompilationOption[T GraphState[T]] func(*Config[T])

// WithMaxSteps sets the maximum number of steps to execute
func WithMaxSteps[T GraphState[T]](steps int) CompilationOption[T] {
	return func(c *Config[T]) {
		c.MaxSteps = steps
	}
}

// WithTimeout sets the execution timeout
func WithTimeout[T GraphState[T]](timeout time.Duration) CompilationOption[T] {
	return func(c *Config[T]) {
		c.Timeout = timeout
	}
}

// WithCheckpointer sets the checkpointer for state persistence
func WithCheckpointer[T GraphState[T]](cp Checkpointer[T]) CompilationOption[T] {
	return func(c *Config[T]) {
		c.Checkpointer = cp
	}
}

// WithLogger sets the logger used for execution tracing
func WithLogger[T GraphState[T]](logger *zap.Logger) CompilationOption[T] {
	return func(c *Config[T]) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// ExecutionOption configures a single run.
type ExecutionOption[T GraphState[T]] func(*Config[T])

// WithThreadID sets the unique thread identifier
func WithThreadID[T GraphState[T]](id string) ExecutionOption[T] {
	return func(c *Config[T]) {
		c.ThreadID = id
	}
}

// WithConfigurable sets additional configuration parameters
func WithConfigurable[T GraphState[T]](config map[string]any) ExecutionOption[T] {
	return func(c *Config[T]) {
		c.Configurable = config
	}
}
