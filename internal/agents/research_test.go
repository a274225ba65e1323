package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/itinerai/itinerai/internal/llm"
)

type stubTool struct {
	name   string
	output string
	err    error
	calls  int
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub" }

func (s *stubTool) Call(_ context.Context, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.output, nil
}

func toolCall(id, name, args string) llms.ToolCall {
	return llms.ToolCall{
		ID:   id,
		Type: "function",
		FunctionCall: &llms.FunctionCall{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestResearchAgentDirectAnswer(t *testing.T) {
	fake := llm.NewFake(llm.FakeResponse{Content: "西安近期晴朗，推荐参观兵马俑。"})
	agent, err := NewResearchAgent(llm.New(fake), nil)
	require.NoError(t, err)
	defer agent.Close()

	out, err := agent.Run(context.Background(), "调研西安旅行信息")
	require.NoError(t, err)
	require.Equal(t, "西安近期晴朗，推荐参观兵马俑。", out)
	require.Equal(t, 1, fake.CallCount())
}

func TestResearchAgentToolLoop(t *testing.T) {
	weather := &stubTool{name: "get_weather", output: `{"info":"晴"}`}
	fake := llm.NewFake(
		llm.FakeResponse{ToolCalls: []llms.ToolCall{
			toolCall("c1", "get_weather", `{"input":"西安"}`),
		}},
		llm.FakeResponse{Content: "西安天气晴朗，适合出行。"},
	)
	agent, err := NewResearchAgent(llm.New(fake), []tools.Tool{weather})
	require.NoError(t, err)
	defer agent.Close()

	out, err := agent.Run(context.Background(), "西安天气如何")
	require.NoError(t, err)
	require.Equal(t, "西安天气晴朗，适合出行。", out)
	require.Equal(t, 1, weather.calls)
}

func TestResearchAgentConcurrentCallsKeepOrder(t *testing.T) {
	weather := &stubTool{name: "get_weather", output: "晴"}
	knowledge := &stubTool{name: "search_travel_knowledge", output: "兵马俑攻略"}
	fake := llm.NewFake(
		llm.FakeResponse{ToolCalls: []llms.ToolCall{
			toolCall("c1", "get_weather", "西安"),
			toolCall("c2", "search_travel_knowledge", "西安景点"),
		}},
		llm.FakeResponse{Content: "完成"},
	)
	agent, err := NewResearchAgent(llm.New(fake), []tools.Tool{weather, knowledge})
	require.NoError(t, err)
	defer agent.Close()

	_, err = agent.Run(context.Background(), "调研西安")
	require.NoError(t, err)

	// Second model call carries the tool responses in call order.
	second := fake.Calls[1]
	var toolResponses []llms.ToolCallResponse
	for _, msg := range second {
		for _, part := range msg.Parts {
			if r, ok := part.(llms.ToolCallResponse); ok {
				toolResponses = append(toolResponses, r)
			}
		}
	}
	require.Len(t, toolResponses, 2)
	require.Equal(t, "c1", toolResponses[0].ToolCallID)
	require.Equal(t, "晴", toolResponses[0].Content)
	require.Equal(t, "c2", toolResponses[1].ToolCallID)
	require.Equal(t, "兵马俑攻略", toolResponses[1].Content)
}

func TestResearchAgentToolFailureBecomesOutput(t *testing.T) {
	broken := &stubTool{name: "get_weather", err: context.DeadlineExceeded}
	fake := llm.NewFake(
		llm.FakeResponse{ToolCalls: []llms.ToolCall{
			toolCall("c1", "get_weather", "西安"),
		}},
		llm.FakeResponse{Content: "天气信息暂缺。"},
	)
	agent, err := NewResearchAgent(llm.New(fake), []tools.Tool{broken})
	require.NoError(t, err)
	defer agent.Close()

	out, err := agent.Run(context.Background(), "西安天气")
	require.NoError(t, err)
	require.Equal(t, "天气信息暂缺。", out)
	require.Equal(t, defaultToolRetries, broken.calls)
}

func TestResearchAgentRoundLimitForcesAnswer(t *testing.T) {
	weather := &stubTool{name: "get_weather", output: "晴"}
	loop := llm.FakeResponse{ToolCalls: []llms.ToolCall{
		toolCall("c1", "get_weather", "西安"),
	}}
	fake := llm.NewFake(loop, loop, llm.FakeResponse{Content: "最终总结"})
	agent, err := NewResearchAgent(llm.New(fake), []tools.Tool{weather}, WithMaxRounds(2))
	require.NoError(t, err)
	defer agent.Close()

	out, err := agent.Run(context.Background(), "西安天气")
	require.NoError(t, err)
	require.Equal(t, "最终总结", out)
	// Two tool rounds plus one forced final completion.
	require.Equal(t, 3, fake.CallCount())
	require.Equal(t, 2, weather.calls)
}
