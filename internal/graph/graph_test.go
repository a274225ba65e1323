package graph

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// testState exercises both merge policies: Text replaces, Log appends.
type testState struct {
	Text string   `json:"text,omitempty"`
	Log  []string `json:"log,omitempty"`
}

func (s testState) Merge(delta testState) testState {
	if delta.Text != "" {
		s.Text = delta.Text
	}
	s.Log = append(s.Log, delta.Log...)
	return s
}

func (s testState) Validate() error { return nil }

func record(name string) NodeFunc[testState] {
	return func(context.Context, testState, Config[testState]) (NodeResponse[testState], error) {
		return NodeResponse[testState]{
			State:  testState{Text: name, Log: []string{name}},
			Status: StatusCompleted,
		}, nil
	}
}

func TestGraphBuilderRejectsUnknownNodes(t *testing.T) {
	g := NewGraph[testState]("builder")
	require.NoError(t, g.AddNode("a", record("a"), nil))

	err := g.AddEdge("a", "ghost", nil)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrNodeNotFound)

	err = g.AddEdge("ghost", "a", nil)
	require.Error(t, err)

	require.Error(t, g.SetEntryPoint("ghost"))
}

func TestGraphBuilderRejectsDuplicateNode(t *testing.T) {
	g := NewGraph[testState]("builder")
	require.NoError(t, g.AddNode("a", record("a"), nil))
	require.Error(t, g.AddNode("a", record("a"), nil))
}

func TestGraphValidateNeedsEntryAndTermination(t *testing.T) {
	g := NewGraph[testState]("incomplete")
	require.NoError(t, g.AddNode("a", record("a"), nil))
	require.Error(t, g.Validate(), "no entry point")

	require.NoError(t, g.SetEntryPoint("a"))
	require.Error(t, g.Validate(), "no path to END")

	require.NoError(t, g.AddEdge("a", END, nil))
	require.NoError(t, g.Validate())
}

func TestGraphFrozenAfterCompile(t *testing.T) {
	g := NewGraph[testState]("frozen")
	require.NoError(t, g.AddNode("a", record("a"), nil))
	require.NoError(t, g.SetEntryPoint("a"))
	require.NoError(t, g.AddEdge("a", END, nil))

	_, err := g.Compile()
	require.NoError(t, err)

	require.ErrorIs(t, g.AddNode("b", record("b"), nil), ErrAlreadyCompiled)
	require.ErrorIs(t, g.AddEdge("a", "a", nil), ErrAlreadyCompiled)
}

func TestConditionalEdgeFallbackMustBeInPathMap(t *testing.T) {
	g := NewGraph[testState]("cond")
	require.NoError(t, g.AddNode("a", record("a"), nil))
	require.NoError(t, g.AddNode("b", record("b"), nil))

	err := g.AddConditionalEdge("a",
		func(context.Context, testState, Config[testState]) string { return "x" },
		map[string]string{"go-b": "b"},
		"missing",
	)
	require.Error(t, err)
}

func TestLinearRunMergesInOrder(t *testing.T) {
	g := NewGraph[testState]("linear")
	for _, n := range []string{"a", "b", "c"} {
		require.NoError(t, g.AddNode(n, record(n), nil))
	}
	require.NoError(t, g.SetEntryPoint("a"))
	require.NoError(t, g.AddEdge("a", "b", nil))
	require.NoError(t, g.AddEdge("b", "c", nil))
	require.NoError(t, g.AddEdge("c", END, nil))

	compiled, err := g.Compile()
	require.NoError(t, err)

	outcome, err := compiled.Run(context.Background(), testState{Log: []string{"in"}})
	require.NoError(t, err)
	require.Equal(t, RunCompleted, outcome.Status)

	// Replace policy keeps the last writer, append policy keeps full order.
	require.Equal(t, "c", outcome.State.Text)
	require.Equal(t, []string{"in", "a", "b", "c"}, outcome.State.Log)
}

func TestConditionalRoutingWithFallback(t *testing.T) {
	build := func(label string) *CompiledGraph[testState] {
		g := NewGraph[testState]("routing")
		require.NoError(t, g.AddNode("router", func(context.Context, testState, Config[testState]) (NodeResponse[testState], error) {
			return NodeResponse[testState]{State: testState{Text: label}, Status: StatusCompleted}, nil
		}, nil))
		require.NoError(t, g.AddNode("left", record("left"), nil))
		require.NoError(t, g.AddNode("right", record("right"), nil))
		require.NoError(t, g.SetEntryPoint("router"))
		require.NoError(t, g.AddConditionalEdge("router",
			func(_ context.Context, st testState, _ Config[testState]) string { return st.Text },
			map[string]string{"go-left": "left", "go-right": "right"},
			"go-left",
		))
		require.NoError(t, g.AddEdge("left", END, nil))
		require.NoError(t, g.AddEdge("right", END, nil))

		compiled, err := g.Compile()
		require.NoError(t, err)
		return compiled
	}

	outcome, err := build("go-right").Run(context.Background(), testState{})
	require.NoError(t, err)
	require.Equal(t, []string{"right"}, outcome.State.Log)

	// Unrecognized labels take the fallback route.
	outcome, err = build("nonsense").Run(context.Background(), testState{})
	require.NoError(t, err)
	require.Equal(t, []string{"left"}, outcome.State.Log)
}

func TestRunStopsAtMaxSteps(t *testing.T) {
	g := NewGraph[testState]("loop")
	require.NoError(t, g.AddNode("a", record("a"), nil))
	require.NoError(t, g.AddNode("b", record("b"), nil))
	require.NoError(t, g.SetEntryPoint("a"))
	require.NoError(t, g.AddEdge("a", "b", nil))
	// The router always loops back; only the step limit ends the run.
	require.NoError(t, g.AddConditionalEdge("b",
		func(context.Context, testState, Config[testState]) string { return "loop" },
		map[string]string{"loop": "a", "exit": END},
		"exit",
	))

	compiled, err := g.Compile(WithMaxSteps[testState](5))
	require.NoError(t, err)

	_, err = compiled.Run(context.Background(), testState{})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMaxSteps)
}

func TestNodeRetryPolicy(t *testing.T) {
	attempts := 0
	g := NewGraph[testState]("retry")
	require.NoError(t, g.AddNode("flaky", func(context.Context, testState, Config[testState]) (NodeResponse[testState], error) {
		attempts++
		if attempts < 3 {
			return NodeResponse[testState]{}, fmt.Errorf("transient %d", attempts)
		}
		return NodeResponse[testState]{State: testState{Text: "ok"}, Status: StatusCompleted}, nil
	}, nil))
	require.NoError(t, g.SetNodeRetryPolicy("flaky", &RetryPolicy{MaxAttempts: 3}))
	require.NoError(t, g.SetEntryPoint("flaky"))
	require.NoError(t, g.AddEdge("flaky", END, nil))

	compiled, err := g.Compile()
	require.NoError(t, err)

	outcome, err := compiled.Run(context.Background(), testState{})
	require.NoError(t, err)
	require.Equal(t, "ok", outcome.State.Text)
	require.Equal(t, 3, attempts)
}

func TestStateInvariantErrorNeverRetried(t *testing.T) {
	attempts := 0
	g := NewGraph[testState]("invariant")
	require.NoError(t, g.AddNode("strict", func(context.Context, testState, Config[testState]) (NodeResponse[testState], error) {
		attempts++
		return NodeResponse[testState]{}, NewStateInvariantError("strict", "text")
	}, nil))
	require.NoError(t, g.SetNodeRetryPolicy("strict", &RetryPolicy{MaxAttempts: 3}))
	require.NoError(t, g.SetEntryPoint("strict"))
	require.NoError(t, g.AddEdge("strict", END, nil))

	compiled, err := g.Compile()
	require.NoError(t, err)

	_, err = compiled.Run(context.Background(), testState{})
	require.Error(t, err)
	require.True(t, IsStateInvariant(err))
	require.Equal(t, 1, attempts)
}
