// A minimal demonstration of the interrupt/resume protocol: a gate node asks
// for confirmation, the run suspends, and a second turn for the same thread
// resumes at the gate instead of the entry point.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/itinerai/itinerai/internal/checkpoints"
	"github.com/itinerai/itinerai/internal/graph"
)

type MessagesState struct {
	Messages []llms.MessageContent
}

func (m MessagesState) Validate() error { return nil }

func (m MessagesState) Merge(other MessagesState) MessagesState {
	return MessagesState{
		Messages: append(m.Messages, other.Messages...),
	}
}

func lastText(state MessagesState) string {
	if len(state.Messages) == 0 {
		return ""
	}
	parts := state.Messages[len(state.Messages)-1].Parts
	if len(parts) == 0 {
		return ""
	}
	if text, ok := parts[0].(llms.TextContent); ok {
		return text.Text
	}
	return ""
}

func ai(text string) MessagesState {
	return MessagesState{
		Messages: []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeAI, text)},
	}
}

func ConfirmGate(_ context.Context, state MessagesState, _ graph.Config[MessagesState]) (graph.NodeResponse[MessagesState], error) {
	if !strings.EqualFold(lastText(state), "yes") {
		return graph.Interrupt(ai("Proceed with the booking? Reply yes to continue."), map[string]any{
			"finalResponse": "Proceed with the booking? Reply yes to continue.",
		}), nil
	}
	return graph.NodeResponse[MessagesState]{
		State:  ai("Confirmed."),
		Status: graph.StatusCompleted,
	}, nil
}

func Book(_ context.Context, _ MessagesState, _ graph.Config[MessagesState]) (graph.NodeResponse[MessagesState], error) {
	return graph.NodeResponse[MessagesState]{
		State:  ai("Booking completed."),
		Status: graph.StatusCompleted,
	}, nil
}

func main() {
	g := graph.NewGraph[MessagesState]("pending-trip")
	if err := g.AddNode("confirm", ConfirmGate, nil); err != nil {
		panic(err)
	}
	if err := g.AddNode("book", Book, nil); err != nil {
		panic(err)
	}
	if err := g.AddEdge("confirm", "book", nil); err != nil {
		panic(err)
	}
	if err := g.AddEdge("book", graph.END, nil); err != nil {
		panic(err)
	}
	if err := g.SetEntryPoint("confirm"); err != nil {
		panic(err)
	}

	checkpointer := checkpoints.NewStateCheckpointer[MessagesState](
		checkpoints.NewMemoryStore[MessagesState]())
	compiled, err := g.Compile(graph.WithCheckpointer[MessagesState](checkpointer))
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	thread := graph.WithThreadID[MessagesState]("demo-thread")

	first := MessagesState{
		Messages: []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, "book my trip")},
	}
	outcome, err := compiled.Run(ctx, first, thread)
	if err != nil {
		panic(err)
	}
	fmt.Println("first turn interrupted:", outcome.Interrupted())
	fmt.Println("question:", outcome.Interruption.Payload["finalResponse"])

	second := MessagesState{
		Messages: []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, "yes")},
	}
	outcome, err = compiled.Run(ctx, second, thread)
	if err != nil {
		panic(err)
	}
	fmt.Println("second turn interrupted:", outcome.Interrupted())
	for _, msg := range outcome.State.Messages {
		if text, ok := msg.Parts[0].(llms.TextContent); ok {
			fmt.Printf("%s: %s\n", msg.Role, text.Text)
		}
	}
}
