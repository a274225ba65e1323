package trip

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/itinerai/itinerai/internal/graph"
	"github.com/itinerai/itinerai/internal/llm"
)

func TestIntentRouterNormalizesModelAnswer(t *testing.T) {
	for _, answer := range []string{"TRUE", "true.", " True\n", "tRuE!", "TRUE，因为用户想规划"} {
		router := NewIntentRouter(llm.New(llm.NewFake(llm.FakeResponse{Content: answer})), nil)
		require.Equal(t, IntentPlan, router.Classify(context.Background(), "帮我看看"), "answer %q", answer)
	}
}

func TestIntentRouterNonTrueIsChat(t *testing.T) {
	for _, answer := range []string{"FALSE", "不确定", "是的"} {
		router := NewIntentRouter(llm.New(llm.NewFake(llm.FakeResponse{Content: answer})), nil)
		require.Equal(t, IntentChat, router.Classify(context.Background(), "你好"), "answer %q", answer)
	}
}

func TestIntentRouterFallsBackToKeywords(t *testing.T) {
	broken := llm.New(llm.NewFake(llm.FakeResponse{Err: errors.New("model down")}))

	router := NewIntentRouter(broken, nil)
	require.Equal(t, IntentPlan, router.Classify(context.Background(), "帮我规划一下"))
	require.Equal(t, IntentPlan, router.Classify(context.Background(), "安排个行程"))
	require.Equal(t, IntentPlan, router.Classify(context.Background(), "please plan my trip"))
	require.Equal(t, IntentChat, router.Classify(context.Background(), "西安有什么好吃的"))
}

func TestIntentRouterEmitsRoutingLabel(t *testing.T) {
	router := NewIntentRouter(llm.New(llm.NewFake(llm.FakeResponse{Content: "TRUE"})), nil)
	resp, err := router.Execute(context.Background(), State{UserMessage: "我想去西安旅游"}, graph.Config[State]{})
	require.NoError(t, err)
	require.Equal(t, graph.StatusCompleted, resp.Status)
	require.Equal(t, IntentPlan, resp.State.Intent)
	require.Equal(t, NodeExtractor, resp.State.NextNode)

	router = NewIntentRouter(llm.New(llm.NewFake(llm.FakeResponse{Content: "FALSE"})), nil)
	resp, err = router.Execute(context.Background(), State{UserMessage: "你好"}, graph.Config[State]{})
	require.NoError(t, err)
	require.Equal(t, IntentChat, resp.State.Intent)
	require.Equal(t, NodeSimpleChat, resp.State.NextNode)
}
