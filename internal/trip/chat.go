package trip

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/itinerai/itinerai/internal/graph"
	"github.com/itinerai/itinerai/internal/llm"
	"github.com/itinerai/itinerai/internal/rag"
)

const chatSystemPrompt = `你是一个友好的旅行助手，回答用户关于旅行的各种问题。
回答要简洁、实用。如果提供了参考资料，优先基于参考资料回答。`

// ChatNode handles non-planning turns with a retrieval-augmented reply.
type ChatNode struct {
	client    *llm.Client
	retriever *rag.Retriever
	logger    *zap.Logger
}

// NewChatNode creates the chat node. The retriever is optional.
func NewChatNode(client *llm.Client, retriever *rag.Retriever, logger *zap.Logger) *ChatNode {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatNode{client: client, retriever: retriever, logger: logger}
}

// Execute answers the user's message and routes to the terminal node.
func (n *ChatNode) Execute(ctx context.Context, st State, _ graph.Config[State]) (graph.NodeResponse[State], error) {
	answer, err := n.client.Complete(ctx, n.systemPrompt(ctx, st.UserMessage), st.Messages)
	if err != nil {
		return graph.NodeResponse[State]{}, errors.Wrap(err, "chat completion")
	}
	return graph.NodeResponse[State]{
		State: State{
			FinalResponse: answer,
			NextNode:      graph.END,
			Messages:      []llms.MessageContent{assistantTurn(answer)},
		},
		Status: graph.StatusCompleted,
	}, nil
}

// Stream answers the user's message forwarding model tokens to fn.
func (n *ChatNode) Stream(ctx context.Context, st State, fn func(chunk string) error) (string, error) {
	answer, err := n.client.Stream(ctx, n.systemPrompt(ctx, st.UserMessage), st.Messages, fn)
	if err != nil {
		return "", errors.Wrap(err, "chat stream")
	}
	return answer, nil
}

// systemPrompt augments the base instruction with retrieved passages.
// Retrieval failures degrade to a plain chat answer.
func (n *ChatNode) systemPrompt(ctx context.Context, query string) string {
	if n.retriever == nil {
		return chatSystemPrompt
	}
	passages, err := n.retriever.Retrieve(ctx, query)
	if err != nil {
		n.logger.Warn("knowledge retrieval failed", zap.Error(err))
		return chatSystemPrompt
	}
	if len(passages) == 0 {
		return chatSystemPrompt
	}
	return fmt.Sprintf("%s\n\n参考资料：\n%s", chatSystemPrompt, strings.Join(passages, "\n---\n"))
}
