package trip

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/itinerai/itinerai/internal/graph"
	"github.com/itinerai/itinerai/internal/llm"
)

const planPromptFormat = `你是一个专业的旅行规划师。根据用户需求和调研结果生成一份行程规划。

用户需求：
目的地：%s
出行时间：%s
预算：%s
偏好：%s

调研结果：
%s

规划规则：
1. 每天最多安排 4 个主要活动。
2. 每天必须包含午餐和晚餐推荐。
3. 收费景点的费用估算不能为 0。
4. 根据天气情况选择室内或室外活动。

输出 JSON 对象，字段为 title（行程标题，包含目的地）、days（数组，每项含 day、city、activities、note）、totalBudget（数字）。`

// Planner synthesizes the structured itinerary from the gathered
// requirements and research payload.
type Planner struct {
	client *llm.Client
	logger *zap.Logger
}

// NewPlanner creates the plan generator node.
func NewPlanner(client *llm.Client, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{client: client, logger: logger}
}

// Execute produces the itinerary. Missing inputs are a wiring defect and
// surface as a state invariant error rather than a user-facing failure.
func (n *Planner) Execute(ctx context.Context, st State, config graph.Config[State]) (graph.NodeResponse[State], error) {
	if st.Requirements == nil {
		return graph.NodeResponse[State]{}, graph.NewStateInvariantError(NodePlanner, "travelRequirements")
	}
	if st.SearchResults == "" {
		return graph.NodeResponse[State]{}, graph.NewStateInvariantError(NodePlanner, "searchResults")
	}

	prompt := fmt.Sprintf(planPromptFormat,
		st.Requirements.Destination,
		st.Requirements.TravelDate,
		orUnspecified(st.Requirements.Budget),
		orUnspecified(st.Requirements.Preference),
		st.SearchResults,
	)
	itinerary, err := llm.CompleteAs[Itinerary](ctx, n.client, prompt,
		[]llms.MessageContent{userTurn("请生成行程规划。")})
	if err != nil {
		return graph.NodeResponse[State]{}, errors.Wrap(err, "synthesize itinerary")
	}
	if err := itinerary.Validate(); err != nil {
		return graph.NodeResponse[State]{}, errors.Wrap(err, "synthesize itinerary")
	}

	n.logger.Debug("itinerary generated",
		zap.String("thread", config.ThreadID),
		zap.String("title", itinerary.Title),
		zap.Int("days", len(itinerary.Days)))

	return graph.NodeResponse[State]{
		State: State{
			Itinerary: &itinerary,
			NextNode:  graph.END,
			Messages:  []llms.MessageContent{assistantTurn(itinerary.Summary())},
		},
		Status: graph.StatusCompleted,
	}, nil
}

func orUnspecified(s string) string {
	if s == "" {
		return "未指定"
	}
	return s
}
