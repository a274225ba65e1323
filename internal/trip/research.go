package trip

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/itinerai/itinerai/internal/graph"
)

// noResearchResult is emitted when the sub-agent yields nothing usable.
const noResearchResult = "未获取到有效结果"

// Researcher is the isolated sub-agent contract. Each call runs in a fresh
// context with no shared checkpoint, so consecutive invocations in the same
// thread never observe each other's intermediate state.
type Researcher interface {
	Run(ctx context.Context, query string) (string, error)
}

// ResearchNode adapts the research sub-agent into a graph node.
type ResearchNode struct {
	agent  Researcher
	logger *zap.Logger
}

// NewResearchNode creates the research adapter node.
func NewResearchNode(agent Researcher, logger *zap.Logger) *ResearchNode {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResearchNode{agent: agent, logger: logger}
}

// researchAttempts bounds sub-agent invocations per turn: one retry for a
// transient failure, then the node degrades instead of failing the run.
const researchAttempts = 2

// Execute runs the sub-agent on the gathered requirements and stores its
// summary. A transient failure gets one retry; a still-failing or empty
// research pass degrades to a sentinel value so the run keeps moving.
func (n *ResearchNode) Execute(ctx context.Context, st State, config graph.Config[State]) (graph.NodeResponse[State], error) {
	query := researchQuery(st.Requirements)

	var result string
	var err error
	for attempt := 1; attempt <= researchAttempts; attempt++ {
		result, err = n.agent.Run(ctx, query)
		if err == nil {
			break
		}
		n.logger.Warn("research sub-agent failed",
			zap.String("thread", config.ThreadID),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	if err != nil {
		result = ""
	}
	if strings.TrimSpace(result) == "" {
		result = noResearchResult
	}
	return graph.NodeResponse[State]{
		State:  State{SearchResults: result},
		Status: graph.StatusCompleted,
	}, nil
}

// researchQuery renders the requirements as a standalone research request,
// so the sub-agent needs no access to the conversation transcript.
func researchQuery(r *Requirements) string {
	if r == nil {
		return "调研一次旅行的天气、景点和美食信息。"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "调研去%s旅行的信息，出行时间%s。", r.Destination, r.TravelDate)
	if r.Budget != "" {
		fmt.Fprintf(&b, "预算：%s。", r.Budget)
	}
	if r.Preference != "" {
		fmt.Fprintf(&b, "偏好：%s。", r.Preference)
	}
	b.WriteString("需要天气情况、推荐景点、当地美食和注意事项。")
	return b.String()
}
