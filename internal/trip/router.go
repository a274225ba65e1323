package trip

import (
	"context"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/itinerai/itinerai/internal/graph"
	"github.com/itinerai/itinerai/internal/llm"
)

const intentSystemPrompt = `你是一个意图识别助手。判断用户消息是否表达了"规划旅行行程"的意图。
如果用户想要规划旅行、制定行程或安排出游，只回答 TRUE，否则只回答 FALSE。不要输出任何其他内容。`

var nonAlpha = regexp.MustCompile(`[^A-Z]`)

// planKeywords drive the deterministic fallback when the model is unavailable.
var planKeywords = []string{"规划", "行程", "安排", "plan", "itinerary", "arrange"}

// IntentRouter classifies each user turn as planning or chat. A model failure
// never blocks the conversation: classification falls back to keywords.
type IntentRouter struct {
	client *llm.Client
	logger *zap.Logger
}

// NewIntentRouter creates the router node over a lightweight model client.
func NewIntentRouter(client *llm.Client, logger *zap.Logger) *IntentRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntentRouter{client: client, logger: logger}
}

// Execute classifies the latest user message and emits intent plus the
// routing label consumed by the conditional edge.
func (n *IntentRouter) Execute(ctx context.Context, st State, _ graph.Config[State]) (graph.NodeResponse[State], error) {
	intent := n.Classify(ctx, st.UserMessage)

	next := NodeSimpleChat
	if intent == IntentPlan {
		next = NodeExtractor
	}
	return graph.NodeResponse[State]{
		State:  State{Intent: intent, NextNode: next},
		Status: graph.StatusCompleted,
	}, nil
}

// Classify labels a single message as planning or chat intent.
func (n *IntentRouter) Classify(ctx context.Context, message string) string {
	answer, err := n.client.Complete(ctx,
		intentSystemPrompt,
		[]llms.MessageContent{userTurn(message)},
	)
	if err != nil {
		n.logger.Warn("intent model unavailable, using keyword fallback", zap.Error(err))
		return keywordIntent(message)
	}
	if normalizeBool(answer) == "TRUE" {
		return IntentPlan
	}
	return IntentChat
}

// normalizeBool strips everything but letters and upper-cases, so "true.",
// " True\n" and "TRUE" all compare equal.
func normalizeBool(s string) string {
	return nonAlpha.ReplaceAllString(strings.ToUpper(s), "")
}

func keywordIntent(message string) string {
	lower := strings.ToLower(message)
	for _, kw := range planKeywords {
		if strings.Contains(lower, kw) {
			return IntentPlan
		}
	}
	return IntentChat
}
