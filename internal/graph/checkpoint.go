package graph

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrCheckpointNotFound signals that no checkpoint exists for a thread yet.
// It is expected on the very first turn of a conversation and triggers
// fresh-run mode; it is not a failure.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// CheckpointKey identifies one thread's checkpoint.
type CheckpointKey struct {
	GraphID  string `json:"graphId"`
	ThreadID string `json:"threadId"`
}

// CheckpointMeta carries bookkeeping persisted alongside the state snapshot.
type CheckpointMeta struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Steps     int       `json:"steps"`
	Status    Status    `json:"status"`
	// NodeQueue is the set of node ids pending execution. Empty means the
	// conversation finished; non-empty means it is suspended awaiting resume.
	NodeQueue []string `json:"nodeQueue"`
}

// Checkpoint is the durable snapshot of a thread: last-merged state plus the
// pending-node queue.
type Checkpoint[T GraphState[T]] struct {
	Key    CheckpointKey  `json:"key"`
	Meta   CheckpointMeta `json:"meta"`
	State  T              `json:"state"`
	NodeID string         `json:"nodeId"`
}

// Pending reports whether the checkpoint marks a suspended conversation.
func (c *Checkpoint[T]) Pending() bool {
	return c.Meta.Status == StatusPending && len(c.Meta.NodeQueue) > 0
}

// DataPoint is the executor-facing view of a checkpoint.
type DataPoint[T GraphState[T]] struct {
	State       T
	Status      Status
	CurrentNode string
	Steps       int
	NodeQueue   []string
}

// Checkpointer handles per-thread state persistence.
type Checkpointer[T GraphState[T]] interface {
	// Save persists the current state
	Save(ctx context.Context, config Config[T], data *DataPoint[T]) error
	// Load retrieves a previously saved state. Returns ErrCheckpointNotFound
	// (possibly wrapped) when the thread has no checkpoint yet.
	Load(ctx context.Context, config Config[T]) (*DataPoint[T], error)
}
