package trip

import (
	"context"

	"github.com/pkg/errors"

	"github.com/itinerai/itinerai/internal/graph"
)

// GraphID identifies the planning graph in checkpoints.
const GraphID = "travel-planner"

// Nodes bundles the business nodes wired into the planning graph.
type Nodes struct {
	Router    *IntentRouter
	Chat      *ChatNode
	Extractor *Extractor
	Research  *ResearchNode
	Planner   *Planner
}

// NewPlanningGraph builds the conversation topology:
//
//	START -> intent_router -(conditional)-> simple_chat -> END
//	                       \-> circular_information_extractor
//	                            -> research_agent -> plan_generator -> END
func NewPlanningGraph(nodes Nodes) (*graph.Graph[State], error) {
	g := graph.NewGraph[State]("travel planning", graph.WithGraphID[State](GraphID))

	steps := []struct {
		name string
		fn   graph.NodeFunc[State]
	}{
		{NodeIntentRouter, nodes.Router.Execute},
		{NodeSimpleChat, nodes.Chat.Execute},
		{NodeExtractor, nodes.Extractor.Execute},
		{NodeResearch, nodes.Research.Execute},
		{NodePlanner, nodes.Planner.Execute},
	}
	for _, s := range steps {
		if err := g.AddNode(s.name, s.fn, nil); err != nil {
			return nil, errors.Wrapf(err, "add node %s", s.name)
		}
	}

	if err := g.AddConditionalEdge(NodeIntentRouter,
		func(_ context.Context, st State, _ graph.Config[State]) string {
			return st.NextNode
		},
		map[string]string{
			NodeSimpleChat: NodeSimpleChat,
			NodeExtractor:  NodeExtractor,
		},
		NodeSimpleChat,
	); err != nil {
		return nil, err
	}

	edges := [][2]string{
		{NodeExtractor, NodeResearch},
		{NodeResearch, NodePlanner},
		{NodePlanner, graph.END},
		{NodeSimpleChat, graph.END},
	}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1], nil); err != nil {
			return nil, errors.Wrapf(err, "add edge %s -> %s", e[0], e[1])
		}
	}

	if err := g.SetEntryPoint(NodeIntentRouter); err != nil {
		return nil, err
	}
	return g, nil
}
