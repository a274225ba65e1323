package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Describe returns a simple text representation of the topology, useful for
// debugging wiring without running anything.
func (g *Graph[T]) Describe() string {
	var b strings.Builder

	b.WriteString("Graph Structure:\n")
	fmt.Fprintf(&b, "Entry Point: %s\n", g.entryPoint)

	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	b.WriteString("\nNodes:\n")
	for _, node := range names {
		if node == g.entryPoint {
			fmt.Fprintf(&b, "  * %s (Entry)\n", node)
		} else {
			fmt.Fprintf(&b, "  - %s\n", node)
		}
	}

	b.WriteString("\nEdges:\n")
	for _, edge := range g.edges {
		fmt.Fprintf(&b, "  %s --> %s\n", edge.From, edge.To)
	}
	for from, branches := range g.branches {
		for range branches {
			fmt.Fprintf(&b, "  %s --[conditional]--> ?\n", from)
		}
	}

	return b.String()
}

// Describe exposes the topology of a compiled graph.
func (cg *CompiledGraph[T]) Describe() string {
	return cg.graph.Describe()
}
