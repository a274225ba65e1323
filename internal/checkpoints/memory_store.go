package checkpoints

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/itinerai/itinerai/internal/graph"
)

// MemoryStore keeps checkpoints in process memory. Suitable for tests and
// single-process deployments without durability requirements.
type MemoryStore[T graph.GraphState[T]] struct {
	checkpoints map[graph.CheckpointKey]*graph.Checkpoint[T]
	mu          sync.RWMutex
}

func NewMemoryStore[T graph.GraphState[T]]() *MemoryStore[T] {
	return &MemoryStore[T]{
		checkpoints: make(map[graph.CheckpointKey]*graph.Checkpoint[T]),
	}
}

func (m *MemoryStore[T]) Save(_ context.Context, checkpoint graph.Checkpoint[T]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	checkpoint.Meta.UpdatedAt = time.Now()
	checkpoint.Meta.NodeQueue = append([]string(nil), checkpoint.Meta.NodeQueue...)
	m.checkpoints[checkpoint.Key] = &checkpoint
	return nil
}

// Load hands back a copy so callers mutating the result (or appending to its
// queue) never reach the stored checkpoint.
func (m *MemoryStore[T]) Load(_ context.Context, key graph.CheckpointKey) (*graph.Checkpoint[T], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp, exists := m.checkpoints[key]
	if !exists {
		return nil, errors.Wrapf(graph.ErrCheckpointNotFound, "thread %s", key.ThreadID)
	}
	copied := *cp
	copied.Meta.NodeQueue = append([]string(nil), cp.Meta.NodeQueue...)
	return &copied, nil
}

func (m *MemoryStore[T]) Delete(_ context.Context, key graph.CheckpointKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.checkpoints, key)
	return nil
}
