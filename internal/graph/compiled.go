package graph

import (
	"context"
)

// CompiledGraph is the immutable, executable form of a graph. It is safe for
// concurrent use across threads; runs for the same thread id are serialized by
// a keyed lock, since concurrent turns on one conversation are disallowed by
// contract.
type CompiledGraph[T GraphState[T]] struct {
	graph  *Graph[T]
	config Config[T]
	locks  *keyedMutex
}

// Compile validates the topology and freezes it for execution.
func (g *Graph[T]) Compile(opts ...CompilationOption[T]) (*CompiledGraph[T], error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	g.compiled = true

	return &CompiledGraph[T]{
		graph:  g,
		config: newConfig(g.graphID, opts...),
		locks:  newKeyedMutex(defaultMaxIdleLocks),
	}, nil
}

// Run executes the graph for one turn of a thread: fresh from the entry point
// when the thread has no pending checkpoint, otherwise resuming at the
// persisted pending node(s) with input merged into the persisted snapshot.
func (cg *CompiledGraph[T]) Run(ctx context.Context, input T, opts ...ExecutionOption[T]) (Outcome[T], error) {
	config := cg.config
	for _, o := range opts {
		o(&config)
	}

	unlock := cg.locks.lock(config.ThreadID)
	defer unlock()

	return execute(ctx, cg.graph, input, config)
}

// Snapshot returns the thread's persisted checkpoint view, or
// ErrCheckpointNotFound for a brand-new thread.
func (cg *CompiledGraph[T]) Snapshot(ctx context.Context, threadID string) (*DataPoint[T], error) {
	if cg.config.Checkpointer == nil {
		return nil, ErrCheckpointNotFound
	}
	config := cg.config
	config.ThreadID = threadID
	return cg.config.Checkpointer.Load(ctx, config)
}

// Pending reports whether the thread is suspended awaiting user input.
func (cg *CompiledGraph[T]) Pending(ctx context.Context, threadID string) bool {
	data, err := cg.Snapshot(ctx, threadID)
	if err != nil {
		return false
	}
	return data.Status == StatusPending && len(data.NodeQueue) > 0
}
