// Package agents hosts the research sub-agent used by the trip planning
// graph. It runs an isolated tool-calling loop against its own transcript,
// so research chatter never leaks into the conversation state.
package agents

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
	"go.uber.org/zap"

	"github.com/itinerai/itinerai/internal/llm"
)

const researchSystemPrompt = `你是一个旅行信息调研助手。根据用户的旅行需求，使用可用的工具查询天气、汇率和本地攻略，
然后汇总一份完整的调研结果，包括天气情况、推荐景点、美食和注意事项。
信息充足后直接给出总结，不要重复调用相同的工具。`

const (
	defaultMaxRounds   = 5
	defaultToolRetries = 2
)

// ResearchAgent runs a bounded tool-calling loop. Each round the model may
// request tool calls, which execute concurrently on a shared worker pool.
// After the round limit the model is asked for a final answer without tools.
type ResearchAgent struct {
	client      *llm.Client
	tools       map[string]tools.Tool
	defs        []llms.Tool
	pool        *ants.Pool
	maxRounds   int
	toolRetries int
	logger      *zap.Logger
}

// AgentOption configures a ResearchAgent.
type AgentOption func(*ResearchAgent)

// WithMaxRounds bounds the number of tool-calling rounds.
func WithMaxRounds(n int) AgentOption {
	return func(a *ResearchAgent) {
		if n > 0 {
			a.maxRounds = n
		}
	}
}

// WithLogger sets the agent logger.
func WithLogger(logger *zap.Logger) AgentOption {
	return func(a *ResearchAgent) { a.logger = logger }
}

// NewResearchAgent creates an agent over the given model client and tools.
func NewResearchAgent(client *llm.Client, toolset []tools.Tool, opts ...AgentOption) (*ResearchAgent, error) {
	pool, err := ants.NewPool(len(toolset) + 1)
	if err != nil {
		return nil, errors.Wrap(err, "create tool pool")
	}

	a := &ResearchAgent{
		client:      client,
		tools:       make(map[string]tools.Tool, len(toolset)),
		pool:        pool,
		maxRounds:   defaultMaxRounds,
		toolRetries: defaultToolRetries,
		logger:      zap.NewNop(),
	}
	for _, t := range toolset {
		a.tools[t.Name()] = t
		a.defs = append(a.defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"input": map[string]any{
							"type":        "string",
							"description": "工具输入",
						},
					},
				},
			},
		})
	}
	for _, o := range opts {
		o(a)
	}
	return a, nil
}

// Run executes the research loop for a query and returns the final answer.
func (a *ResearchAgent) Run(ctx context.Context, query string) (string, error) {
	transcript := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, query),
	}

	for round := 0; round < a.maxRounds; round++ {
		resp, err := a.client.Generate(ctx, researchSystemPrompt, transcript, llms.WithTools(a.defs))
		if err != nil {
			return "", errors.Wrapf(err, "research round %d", round+1)
		}
		choice := resp.Choices[0]
		if len(choice.ToolCalls) == 0 {
			return choice.Content, nil
		}

		a.logger.Debug("executing tool calls",
			zap.Int("round", round+1),
			zap.Int("calls", len(choice.ToolCalls)))

		transcript = append(transcript, assistantToolCallMessage(choice))
		transcript = append(transcript, a.executeToolCalls(ctx, choice.ToolCalls)...)
	}

	// Round limit reached, force a plain answer from what was gathered.
	return a.client.Complete(ctx, researchSystemPrompt, append(transcript,
		llms.TextParts(llms.ChatMessageTypeHuman, "请基于以上信息直接给出调研总结。")))
}

// Close releases the tool worker pool.
func (a *ResearchAgent) Close() {
	a.pool.Release()
}

// executeToolCalls runs one round's tool calls concurrently and returns their
// response messages in call order.
func (a *ResearchAgent) executeToolCalls(ctx context.Context, calls []llms.ToolCall) []llms.MessageContent {
	results := make([]string, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = a.runTool(ctx, call)
		}
		if err := a.pool.Submit(task); err != nil {
			// Pool saturated or closed, run inline.
			task()
		}
	}
	wg.Wait()

	out := make([]llms.MessageContent, 0, len(calls))
	for i, call := range calls {
		out = append(out, llms.MessageContent{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{llms.ToolCallResponse{
				ToolCallID: call.ID,
				Name:       call.FunctionCall.Name,
				Content:    results[i],
			}},
		})
	}
	return out
}

// runTool invokes a single tool with bounded retries. Failures come back as
// tool output so the model can route around them.
func (a *ResearchAgent) runTool(ctx context.Context, call llms.ToolCall) string {
	name := call.FunctionCall.Name
	tool, ok := a.tools[name]
	if !ok {
		return fmt.Sprintf("未知工具: %s", name)
	}

	var lastErr error
	for attempt := 0; attempt < a.toolRetries; attempt++ {
		out, err := tool.Call(ctx, call.FunctionCall.Arguments)
		if err == nil {
			return out
		}
		lastErr = err
		a.logger.Warn("tool call failed",
			zap.String("tool", name),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return fmt.Sprintf("工具 %s 调用失败: %s", name, lastErr)
}

func assistantToolCallMessage(choice *llms.ContentChoice) llms.MessageContent {
	parts := make([]llms.ContentPart, 0, len(choice.ToolCalls)+1)
	if choice.Content != "" {
		parts = append(parts, llms.TextContent{Text: choice.Content})
	}
	for _, call := range choice.ToolCalls {
		parts = append(parts, call)
	}
	return llms.MessageContent{Role: llms.ChatMessageTypeAI, Parts: parts}
}
