package trip

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/itinerai/itinerai/internal/graph"
	"github.com/itinerai/itinerai/internal/llm"
)

func fixedNow() time.Time {
	return time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
}

func newTestExtractor(fake *llm.Fake) *Extractor {
	n := NewExtractor(llm.New(fake), nil)
	n.now = fixedNow
	return n
}

func TestExtractorInterruptsWhenDateMissing(t *testing.T) {
	fake := llm.NewFake(
		llm.FakeResponse{Content: `{"destination":"大理","travelDate":""}`},
		llm.FakeResponse{Content: "请问您计划什么时候出发去大理呢？"},
	)
	n := newTestExtractor(fake)

	st := State{
		UserMessage: "我想去大理",
		Messages:    []llms.MessageContent{userTurn("我想去大理")},
	}
	resp, err := n.Execute(context.Background(), st, graph.Config[State]{})
	require.NoError(t, err)
	require.Equal(t, graph.StatusPending, resp.Status)
	require.NotNil(t, resp.Interrupt)

	// The question surfaces in the payload and is remembered in state.
	require.Equal(t, "请问您计划什么时候出发去大理呢？", resp.Interrupt.Payload["finalResponse"])
	require.True(t, resp.State.HasPendingQuestion())

	// The date stays absent, never defaulted to today.
	require.Equal(t, "大理", resp.State.Requirements.Destination)
	require.Empty(t, resp.State.Requirements.TravelDate)

	// The clarification question joins the transcript as an assistant turn.
	require.Len(t, resp.State.Messages, 1)
	require.Equal(t, llms.ChatMessageTypeAI, resp.State.Messages[0].Role)
}

func TestExtractorCompletesOnFollowUpDate(t *testing.T) {
	fake := llm.NewFake(
		llm.FakeResponse{Content: `{"destination":"","travelDate":"2026-09-09"}`},
	)
	n := newTestExtractor(fake)

	q := "请问您计划什么时候出发去大理呢？"
	st := State{
		UserMessage:     "下周三",
		Requirements:    &Requirements{Destination: "大理"},
		PendingQuestion: &q,
		Messages: []llms.MessageContent{
			userTurn("我想去大理"),
			assistantTurn(q),
			userTurn("下周三"),
		},
	}
	resp, err := n.Execute(context.Background(), st, graph.Config[State]{Resuming: true})
	require.NoError(t, err)
	require.Equal(t, graph.StatusCompleted, resp.Status)
	require.Nil(t, resp.Interrupt)

	// Prior slots survive, the new date fills in, the memory clears.
	require.Equal(t, "大理", resp.State.Requirements.Destination)
	require.Equal(t, "2026-09-09", resp.State.Requirements.TravelDate)
	require.NotNil(t, resp.State.PendingQuestion)
	require.Empty(t, *resp.State.PendingQuestion)
}

func TestExtractorPromptCarriesCurrentDate(t *testing.T) {
	fake := llm.NewFake(
		llm.FakeResponse{Content: `{"destination":"西安","travelDate":"2026-09-09"}`},
	)
	n := newTestExtractor(fake)

	_, err := n.Execute(context.Background(), State{
		Messages: []llms.MessageContent{userTurn("下周三去西安")},
	}, graph.Config[State]{})
	require.NoError(t, err)

	system := fake.Calls[0][0]
	require.Equal(t, llms.ChatMessageTypeSystem, system.Role)
	require.Contains(t, textOf(t, system), "2026-09-02")
	require.Contains(t, textOf(t, system), "严禁默认为今天")
}

func TestExtractorFallbackQuestionOnClarifyFailure(t *testing.T) {
	fake := llm.NewFake(
		llm.FakeResponse{Content: `{"destination":"","travelDate":""}`},
		llm.FakeResponse{Err: context.DeadlineExceeded},
	)
	n := newTestExtractor(fake)

	resp, err := n.Execute(context.Background(), State{
		Messages: []llms.MessageContent{userTurn("出去玩")},
	}, graph.Config[State]{})
	require.NoError(t, err)
	require.Equal(t, graph.StatusPending, resp.Status)
	require.Equal(t, fallbackQuestion, resp.Interrupt.Payload["finalResponse"])
}

func TestExtractorPropagatesStructuredOutputError(t *testing.T) {
	fake := llm.NewFake(llm.FakeResponse{Content: "这不是 JSON"})
	n := newTestExtractor(fake)

	_, err := n.Execute(context.Background(), State{
		Messages: []llms.MessageContent{userTurn("我想去大理")},
	}, graph.Config[State]{})
	require.Error(t, err)

	var soErr *llm.StructuredOutputError
	require.ErrorAs(t, err, &soErr)
}

func TestMissingSlots(t *testing.T) {
	require.Equal(t, "目的地和出行时间", missingSlots(nil))
	require.Equal(t, "出行时间", missingSlots(&Requirements{Destination: "大理"}))
	require.Equal(t, "目的地", missingSlots(&Requirements{TravelDate: "2026-09-09"}))
}
