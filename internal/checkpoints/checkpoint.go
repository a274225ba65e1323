package checkpoints

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/itinerai/itinerai/internal/graph"
)

// StateCheckpointer manages execution state persistence on top of a Store.
type StateCheckpointer[T graph.GraphState[T]] struct {
	store Store[T]
}

func NewStateCheckpointer[T graph.GraphState[T]](store Store[T]) *StateCheckpointer[T] {
	return &StateCheckpointer[T]{
		store: store,
	}
}

func (sc *StateCheckpointer[T]) Save(ctx context.Context, config graph.Config[T], data *graph.DataPoint[T]) error {
	key := graph.CheckpointKey{
		GraphID:  config.GraphID,
		ThreadID: config.ThreadID,
	}

	cp := graph.Checkpoint[T]{
		Key: key,
		Meta: graph.CheckpointMeta{
			CreatedAt: time.Now(),
			Steps:     data.Steps,
			Status:    data.Status,
			NodeQueue: data.NodeQueue,
		},
		State:  data.State,
		NodeID: data.CurrentNode,
	}

	if err := sc.store.Save(ctx, cp); err != nil {
		return errors.Wrapf(err, "failed to save checkpoint for GraphID %s and ThreadID %s", key.GraphID, key.ThreadID)
	}
	return nil
}

func (sc *StateCheckpointer[T]) Load(ctx context.Context, config graph.Config[T]) (*graph.DataPoint[T], error) {
	key := graph.CheckpointKey{
		GraphID:  config.GraphID,
		ThreadID: config.ThreadID,
	}

	cp, err := sc.store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, graph.ErrCheckpointNotFound) {
			return nil, err
		}
		return nil, errors.Wrapf(err, "failed to load checkpoint for GraphID %s and ThreadID %s", key.GraphID, key.ThreadID)
	}

	return &graph.DataPoint[T]{
		State:       cp.State,
		CurrentNode: cp.NodeID,
		Status:      cp.Meta.Status,
		Steps:       cp.Meta.Steps,
		NodeQueue:   cp.Meta.NodeQueue,
	}, nil
}

// Update merges a partial state into the thread's persisted snapshot and
// persists the result with the given pending node queue, in one step. A
// missing checkpoint starts from the partial state alone.
func (sc *StateCheckpointer[T]) Update(
	ctx context.Context,
	config graph.Config[T],
	partial T,
	pending ...string,
) (*graph.Checkpoint[T], error) {
	key := graph.CheckpointKey{
		GraphID:  config.GraphID,
		ThreadID: config.ThreadID,
	}

	state := partial
	nodeID := ""
	steps := 0
	status := graph.StatusCompleted
	if len(pending) > 0 {
		status = graph.StatusPending
	}

	if prev, err := sc.store.Load(ctx, key); err == nil {
		state = prev.State.Merge(partial)
		nodeID = prev.NodeID
		steps = prev.Meta.Steps
	} else if !errors.Is(err, graph.ErrCheckpointNotFound) {
		return nil, errors.Wrap(err, "failed to load checkpoint for update")
	}

	cp := graph.Checkpoint[T]{
		Key: key,
		Meta: graph.CheckpointMeta{
			CreatedAt: time.Now(),
			Steps:     steps,
			Status:    status,
			NodeQueue: pending,
		},
		State:  state,
		NodeID: nodeID,
	}
	if err := sc.store.Save(ctx, cp); err != nil {
		return nil, errors.Wrap(err, "failed to save updated checkpoint")
	}
	return &cp, nil
}
