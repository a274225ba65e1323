package checkpoints

import (
	"context"

	"github.com/itinerai/itinerai/internal/graph"
)

// Store defines persistent storage operations for checkpoints. One record per
// {graph id, thread id}; records are never deleted automatically.
type Store[T graph.GraphState[T]] interface {
	Save(ctx context.Context, checkpoint graph.Checkpoint[T]) error
	// Load returns graph.ErrCheckpointNotFound (possibly wrapped) when no
	// record exists for the key.
	Load(ctx context.Context, key graph.CheckpointKey) (*graph.Checkpoint[T], error)
	Delete(ctx context.Context, key graph.CheckpointKey) error
}
