package trip

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestStateMergeReplacePolicies(t *testing.T) {
	st := State{}
	st = st.Merge(State{Intent: IntentChat, UserMessage: "你好"})
	st = st.Merge(State{Intent: IntentPlan})

	// Replace keys keep the last written value.
	require.Equal(t, IntentPlan, st.Intent)
	require.Equal(t, "你好", st.UserMessage)

	// Empty updates never erase existing values.
	st = st.Merge(State{})
	require.Equal(t, IntentPlan, st.Intent)
}

func TestStateMergeAppendsMessages(t *testing.T) {
	st := State{}
	st = st.Merge(State{Messages: []llms.MessageContent{userTurn("第一句")}})
	st = st.Merge(State{Messages: []llms.MessageContent{assistantTurn("回复"), userTurn("第二句")}})

	require.Len(t, st.Messages, 3)
	require.Equal(t, "第一句", textOf(t, st.Messages[0]))
	require.Equal(t, "回复", textOf(t, st.Messages[1]))
	require.Equal(t, "第二句", textOf(t, st.Messages[2]))
}

func TestStateMergePointerReplaceAndClear(t *testing.T) {
	q := "想去哪里？"
	st := State{}.Merge(State{PendingQuestion: &q})
	require.True(t, st.HasPendingQuestion())

	// A nil pointer leaves the stored question intact.
	st = st.Merge(State{Intent: IntentPlan})
	require.True(t, st.HasPendingQuestion())

	// Pointing at the empty string clears it.
	st = st.Merge(State{PendingQuestion: clearedQuestion()})
	require.False(t, st.HasPendingQuestion())
}

func TestStateValidateRejectsUnknownIntent(t *testing.T) {
	require.NoError(t, State{Intent: IntentPlan}.Validate())
	require.NoError(t, State{}.Validate())
	require.Error(t, State{Intent: "MAYBE"}.Validate())
}

func TestStateRoundTripsThroughJSON(t *testing.T) {
	st := State{
		ThreadID:     "t1",
		Intent:       IntentPlan,
		Requirements: &Requirements{Destination: "西安", TravelDate: "2026-09-09"},
		Itinerary: &Itinerary{
			Title:       "西安三日游",
			Days:        []DailyPlan{{Day: 1, City: "西安", Activities: []string{"兵马俑"}}},
			TotalBudget: 3000,
		},
		Messages: []llms.MessageContent{userTurn("我想去西安"), assistantTurn("好的")},
	}

	raw, err := json.Marshal(st)
	require.NoError(t, err)

	var got State
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Equal(t, st.Requirements, got.Requirements)
	require.Equal(t, st.Itinerary, got.Itinerary)
	require.Len(t, got.Messages, 2)
	require.Equal(t, "我想去西安", textOf(t, got.Messages[0]))
}

func TestRequirementsMissingCriticalInfo(t *testing.T) {
	require.True(t, (*Requirements)(nil).MissingCriticalInfo())
	require.True(t, (&Requirements{Destination: "大理"}).MissingCriticalInfo())
	require.True(t, (&Requirements{TravelDate: "2026-09-09"}).MissingCriticalInfo())
	require.False(t, (&Requirements{Destination: "大理", TravelDate: "2026-09-09"}).MissingCriticalInfo())

	// Budget and preference never gate routing.
	require.False(t, (&Requirements{Destination: "大理", TravelDate: "明天"}).MissingCriticalInfo())
}

func TestRequirementsMergeOverKeepsPriorSlots(t *testing.T) {
	prior := &Requirements{Destination: "西安"}
	got := Requirements{TravelDate: "2026-09-09"}.mergeOver(prior)
	require.Equal(t, "西安", got.Destination)
	require.Equal(t, "2026-09-09", got.TravelDate)
}

func TestItineraryValidate(t *testing.T) {
	ok := &Itinerary{Days: []DailyPlan{{Day: 1}, {Day: 2}}, TotalBudget: 100}
	require.NoError(t, ok.Validate())

	gap := &Itinerary{Days: []DailyPlan{{Day: 1}, {Day: 3}}}
	require.Error(t, gap.Validate())

	startAtTwo := &Itinerary{Days: []DailyPlan{{Day: 2}}}
	require.Error(t, startAtTwo.Validate())

	negative := &Itinerary{TotalBudget: -1}
	require.Error(t, negative.Validate())
}

func textOf(t *testing.T, msg llms.MessageContent) string {
	t.Helper()
	require.NotEmpty(t, msg.Parts)
	text, ok := msg.Parts[0].(llms.TextContent)
	require.True(t, ok)
	return text.Text
}
