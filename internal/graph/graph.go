package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const defaultGraphName = "graph"

// Graph represents the mutable graph structure. Building is single-threaded,
// at process start; Compile freezes the topology.
type Graph[T GraphState[T]] struct {
	graphID  string
	nodes    map[string]NodeSpec[T]
	edges    []Edge
	branches map[string][]Branch[T]
	// branchTargets records the possible destinations of each node's
	// branches, since the branch functions themselves are opaque to
	// reachability validation.
	branchTargets map[string][]string

	entryPoint string
	compiled   bool
}

type Option[T GraphState[T]] func(*Graph[T])

func WithGraphID[T GraphState[T]](id string) Option[T] {
	return func(g *Graph[T]) {
		g.graphID = id
	}
}

// NewGraph creates a new graph instance
func NewGraph[T GraphState[T]](name string, opt ...Option[T]) *Graph[T] {
	graphName := defaultGraphName
	if name != "" {
		graphName = name
	}

	g := Graph[T]{
		graphID:       uuid.New().String(),
		nodes:         make(map[string]NodeSpec[T]),
		branches:      make(map[string][]Branch[T]),
		branchTargets: make(map[string][]string),
	}
	for _, o := range opt {
		o(&g)
	}

	// remove spaces
	graphName = strings.ReplaceAll(graphName, " ", "-")
	// prepend graph name to graphID
	g.graphID = fmt.Sprintf("%s-%s", graphName, g.graphID)
	return &g
}

// ID returns the graph identifier.
func (g *Graph[T]) ID() string {
	return g.graphID
}

// AddNode adds a new node to the graph
func (g *Graph[T]) AddNode(name string, fn NodeFunc[T], metadata map[string]any) error {
	if g.compiled {
		return ErrAlreadyCompiled
	}

	if _, exists := g.nodes[name]; exists {
		return NewValidationError("AddNode", name, errors.New("node already exists"))
	}

	g.nodes[name] = NodeSpec[T]{
		Name:     name,
		Function: fn,
		Metadata: metadata,
	}

	return nil
}

// HasNode reports whether a node is declared.
func (g *Graph[T]) HasNode(name string) bool {
	_, exists := g.nodes[name]
	return exists
}

// SetNodeRetryPolicy attaches a retry policy to a declared node.
func (g *Graph[T]) SetNodeRetryPolicy(name string, policy *RetryPolicy) error {
	if g.compiled {
		return ErrAlreadyCompiled
	}
	spec, exists := g.nodes[name]
	if !exists {
		return NewValidationError("SetNodeRetryPolicy", name, ErrNodeNotFound)
	}
	spec.RetryPolicy = policy
	g.nodes[name] = spec
	return nil
}

// AddEdge methods for edge management
func (g *Graph[T]) AddEdge(from, to string, metadata map[string]any) error {
	if g.compiled {
		return ErrAlreadyCompiled
	}

	if err := g.validateEdgeNodes(from, []string{to}); err != nil {
		return err
	}

	g.edges = append(g.edges, Edge{
		From:     from,
		To:       to,
		Metadata: metadata,
	})

	return nil
}

// AddBranch adds a conditional branch from a node
func (g *Graph[T]) AddBranch(from string, path func(context.Context, T, Config[T]) string, then string, metadata map[string]any) error {
	if g.compiled {
		return ErrAlreadyCompiled
	}

	// Validate source node
	if _, exists := g.nodes[from]; !exists {
		return NewValidationError("AddBranch", from, ErrNodeNotFound)
	}

	// Validate target node if specified
	if then != "" && then != END {
		if _, exists := g.nodes[then]; !exists {
			return NewValidationError("AddBranch", then, ErrNodeNotFound)
		}
	}

	g.branches[from] = append(g.branches[from], Branch[T]{
		Path:     path,
		Then:     then,
		Metadata: metadata,
	})
	if then != "" {
		g.branchTargets[from] = append(g.branchTargets[from], then)
	}
	return nil
}

// AddConditionalEdge registers a state-conditioned router out of a node. The
// router is called with the post-merge state; the label it returns selects the
// next node id from pathMap. An unrecognized label falls back to the
// configured fallback label.
func (g *Graph[T]) AddConditionalEdge(
	from string,
	router func(context.Context, T, Config[T]) string,
	pathMap map[string]string,
	fallback string,
) error {
	if g.compiled {
		return ErrAlreadyCompiled
	}
	if len(pathMap) == 0 {
		return NewValidationError("AddConditionalEdge", from, errors.New("empty path map"))
	}
	if _, ok := pathMap[fallback]; !ok {
		return NewValidationError("AddConditionalEdge", from,
			errors.Errorf("fallback label %q not in path map", fallback))
	}

	targets := make([]string, 0, len(pathMap))
	for _, to := range pathMap {
		targets = append(targets, to)
	}
	if err := g.validateEdgeNodes(from, targets); err != nil {
		return err
	}

	if err := g.AddBranch(from,
		func(ctx context.Context, st T, cfg Config[T]) string {
			label := router(ctx, st, cfg)
			if to, ok := pathMap[label]; ok {
				return to
			}
			return pathMap[fallback]
		},
		"", // no then node
		nil,
	); err != nil {
		return err
	}
	g.branchTargets[from] = append(g.branchTargets[from], targets...)
	return nil
}

// validateEdgeNodes validates source and target nodes
func (g *Graph[T]) validateEdgeNodes(from string, targets []string) error {
	if from == END {
		return NewValidationError("AddEdge", from, errors.New("cannot add edge from END node"))
	}

	// Validate source node exists
	if _, exists := g.nodes[from]; !exists {
		return NewValidationError("AddEdge", from, ErrNodeNotFound)
	}

	// Validate all possible targets exist
	for _, target := range targets {
		if target == START {
			return NewValidationError("AddEdge", target, errors.New("cannot add edge to START node"))
		}
		if target != END {
			if _, exists := g.nodes[target]; !exists {
				return NewValidationError("AddEdge", target, ErrNodeNotFound)
			}
		}
	}

	return nil
}

// SetEntryPoint sets the entry point of the graph
func (g *Graph[T]) SetEntryPoint(name string) error {
	if g.compiled {
		return ErrAlreadyCompiled
	}

	if name == END {
		return NewValidationError("SetEntryPoint", name, errors.New("cannot set END as entry point"))
	}

	if _, exists := g.nodes[name]; !exists {
		return NewValidationError("SetEntryPoint", name, ErrNodeNotFound)
	}

	g.entryPoint = name
	return nil
}

// Validate checks the topology: entry point set, every node reachable, and a
// path to END exists.
func (g *Graph[T]) Validate() error {
	if g.entryPoint == "" {
		return ErrNoEntryPoint
	}

	if _, exists := g.nodes[g.entryPoint]; !exists {
		return NewValidationError("Validate", g.entryPoint, ErrNodeNotFound)
	}

	// Use DFS to find reachable nodes
	visited := make(map[string]bool)
	g.dfs(g.entryPoint, visited)

	for node := range g.nodes {
		if !visited[node] {
			return NewValidationError("Validate", node, errors.New("unreachable from entry point"))
		}
	}

	if !visited[END] {
		return ErrNoEndPoint
	}

	return nil
}

func (g *Graph[T]) dfs(node string, visited map[string]bool) {
	visited[node] = true

	for _, edge := range g.edges {
		if edge.From == node && !visited[edge.To] {
			g.dfs(edge.To, visited)
		}
	}
	for _, to := range g.branchTargets[node] {
		if !visited[to] {
			g.dfs(to, visited)
		}
	}
}
