package graph

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const defaultMaxAttempts = 1

// NextNode is the routing decision after a node completes.
type NextNode struct {
	Target string // Next node to execute
	Then   string // Optional post-processing node
}

func executeNode[T GraphState[T]](
	ctx context.Context,
	node NodeSpec[T],
	state T,
	config Config[T],
) (NodeResponse[T], error) {
	maxAttempts := defaultMaxAttempts
	if node.RetryPolicy != nil && node.RetryPolicy.MaxAttempts > 0 {
		maxAttempts = node.RetryPolicy.MaxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 && node.RetryPolicy != nil {
			select {
			case <-ctx.Done():
				return NodeResponse[T]{}, ctx.Err()
			case <-time.After(node.RetryPolicy.Delay):
			}
		}

		resp, err := node.Function(ctx, state, config)
		if err == nil {
			return resp, nil
		}
		if IsStateInvariant(err) {
			// Wiring defect: retrying cannot help.
			return NodeResponse[T]{}, err
		}
		lastErr = err
	}
	return NodeResponse[T]{}, errors.Wrapf(lastErr, "node %s failed after %d attempts", node.Name, maxAttempts)
}

func saveCheckpoint[T GraphState[T]](
	ctx context.Context,
	state T,
	node string,
	status Status,
	steps int,
	config Config[T],
	nodeQueue ...string,
) error {
	if config.Checkpointer == nil {
		return nil
	}

	data := &DataPoint[T]{
		State:       state,
		CurrentNode: node,
		Status:      status,
		Steps:       steps,
		NodeQueue:   nodeQueue,
	}
	if err := config.Checkpointer.Save(ctx, config, data); err != nil {
		return errors.Wrap(err, "failed to save checkpoint")
	}
	return nil
}

// loadOrInitCheckpoint decides fresh-run vs resume-run. A missing checkpoint
// (or a terminal one) starts fresh at the entry point. A pending checkpoint
// resumes at the persisted node queue, with the caller's input merged into the
// persisted snapshot, and marks the config as resuming. A terminal checkpoint
// still contributes its state so the conversation transcript carries over
// between turns of the same thread.
//
// The step count is a per-run budget: only a resumed run continues its own
// count, a fresh turn starts at zero regardless of how many turns the thread
// has seen. The persisted Steps value is bookkeeping for the last run.
func loadOrInitCheckpoint[T GraphState[T]](
	ctx context.Context,
	entryPoint string,
	initialState T,
	config *Config[T],
) DataPoint[T] {
	data := DataPoint[T]{
		State:       initialState,
		CurrentNode: entryPoint,
		Status:      StatusReady,
		Steps:       0,
		NodeQueue:   []string{entryPoint},
	}

	if config.Checkpointer == nil {
		return data
	}

	checkpoint, err := config.Checkpointer.Load(ctx, *config)
	if err != nil {
		if !errors.Is(err, ErrCheckpointNotFound) {
			config.Logger.Warn("checkpoint load failed, starting fresh",
				zap.String("thread_id", config.ThreadID), zap.Error(err))
		}
		return data
	}

	data.State = checkpoint.State.Merge(initialState)
	if checkpoint.Status == StatusPending && len(checkpoint.NodeQueue) > 0 {
		data.CurrentNode = checkpoint.CurrentNode
		data.NodeQueue = checkpoint.NodeQueue
		data.Steps = checkpoint.Steps
		config.Resuming = true
	}

	return data
}

func checkExecutionLimits[T GraphState[T]](ctx context.Context, steps int, config Config[T]) error {
	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "execution cancelled")
	default:
	}

	if config.MaxSteps > 0 && steps >= config.MaxSteps {
		return errors.Wrapf(ErrMaxSteps, "%d steps", steps)
	}

	return nil
}

func execute[T GraphState[T]](
	ctx context.Context,
	graph *Graph[T],
	initialState T,
	config Config[T],
) (Outcome[T], error) {
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	// Load or initialize the state and checkpoint
	checkpoint := loadOrInitCheckpoint(ctx, graph.entryPoint, initialState, &config)
	st := checkpoint.State
	steps := checkpoint.Steps
	nodeQueue := checkpoint.NodeQueue

	for len(nodeQueue) > 0 {
		if err := checkExecutionLimits(ctx, steps, config); err != nil {
			return Outcome[T]{State: st}, err
		}

		// Pop next node
		current := nodeQueue[0]
		nodeQueue = nodeQueue[1:]

		if current == END {
			continue
		}

		node, exists := graph.nodes[current]
		if !exists {
			return Outcome[T]{State: st}, NewExecutionError("execute", current, ErrNodeNotFound)
		}

		config.Logger.Debug("executing node",
			zap.String("node", current),
			zap.String("thread_id", config.ThreadID),
			zap.Int("step", steps))

		resp, err := executeNode(ctx, node, st, config)
		if err != nil {
			return Outcome[T]{State: st}, NewExecutionError("execute", current, err)
		}
		st = st.Merge(resp.State)

		// A pending node suspends the run: persist the snapshot with the
		// interrupting node as the sole pending entry and surface the
		// interruption to the caller without advancing.
		if resp.Status == StatusPending {
			intr := resp.Interrupt
			if intr == nil {
				intr = &Interruption[T]{}
			}
			intr.NodeID = current
			intr.State = st
			if err = saveCheckpoint(ctx, st, current, StatusPending, steps, config, current); err != nil {
				return Outcome[T]{State: st}, err
			}
			return Outcome[T]{Status: RunInterrupted, State: st, Interruption: intr}, nil
		}

		// Route with the post-merge state, then persist the checkpoint so it
		// always records the next node(s) pending execution.
		next, err := getNextNode(ctx, graph, current, st, config)
		if err != nil {
			return Outcome[T]{State: st}, err
		}
		if next.Target != END {
			nodeQueue = append(nodeQueue, next.Target)
		}
		if next.Then != "" && next.Then != END {
			nodeQueue = append(nodeQueue, next.Then)
		}

		if err = saveCheckpoint(ctx, st, current, StatusCompleted, steps+1, config, nodeQueue...); err != nil {
			return Outcome[T]{State: st}, err
		}

		config.Logger.Debug("transition",
			zap.String("from", current),
			zap.String("to", next.Target))

		steps++
	}

	return Outcome[T]{Status: RunCompleted, State: st}, nil
}

func getNextNode[T GraphState[T]](
	ctx context.Context,
	graph *Graph[T],
	currentNode string,
	state T,
	config Config[T],
) (NextNode, error) {
	// Check branches first
	for _, branch := range graph.branches[currentNode] {
		if target := branch.Path(ctx, state, config); target != "" {
			return NextNode{
				Target: target,
				Then:   branch.Then,
			}, nil
		}
	}

	// Fall back to direct edge
	for _, edge := range graph.edges {
		if edge.From == currentNode {
			return NextNode{Target: edge.To}, nil
		}
	}

	return NextNode{}, NewExecutionError("route", currentNode, errors.New("no transition from node"))
}
