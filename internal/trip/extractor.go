package trip

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/itinerai/itinerai/internal/graph"
	"github.com/itinerai/itinerai/internal/llm"
)

const extractionPromptFormat = `你是一个旅行需求提取助手。今天的日期是 %s。
从对话中提取用户的旅行需求，输出 JSON 对象，字段为 destination、travelDate、budget、preference。
规则：
1. 只提取用户明确说过的信息，没有提到的字段留空字符串。
2. travelDate 必须由用户明确表述的时间推算（如"下周三"按今天的日期换算成 YYYY-MM-DD），
   用户完全没有提到出行时间时 travelDate 必须留空，严禁默认为今天或任何日期。
3. budget 和 preference 为可选信息，没提到就留空。`

const clarifyPromptFormat = `你是一个旅行规划助手。用户的旅行需求还缺少关键信息：%s。
用一句自然、友好的中文向用户提一个澄清问题，只输出问题本身。`

const fallbackQuestion = "请问您计划什么时间出发，想去哪里旅行呢？"

// Extractor fills the travel requirement slots turn by turn. When critical
// slots are missing it asks one clarification question and suspends the run;
// the remembered question lives in the checkpointed state, so the follow-up
// turn is recognized as an answer even after a process restart.
type Extractor struct {
	client *llm.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewExtractor creates the slot-filling extractor node.
func NewExtractor(client *llm.Client, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{client: client, logger: logger, now: time.Now}
}

// Execute extracts requirements from the transcript. Completes when both
// destination and travel date are known, otherwise interrupts with a
// clarification question.
func (n *Extractor) Execute(ctx context.Context, st State, config graph.Config[State]) (graph.NodeResponse[State], error) {
	if config.Resuming && st.HasPendingQuestion() {
		n.logger.Debug("resuming extraction after clarification",
			zap.String("thread", config.ThreadID),
			zap.String("question", *st.PendingQuestion))
	}

	prompt := fmt.Sprintf(extractionPromptFormat, n.now().Format("2006-01-02"))
	extracted, err := llm.CompleteAs[Requirements](ctx, n.client, prompt, st.Messages)
	if err != nil {
		return graph.NodeResponse[State]{}, errors.Wrap(err, "extract travel requirements")
	}
	merged := extracted.mergeOver(st.Requirements)

	if !merged.MissingCriticalInfo() {
		return graph.NodeResponse[State]{
			State: State{
				Requirements:    merged,
				PendingQuestion: clearedQuestion(),
			},
			Status: graph.StatusCompleted,
		}, nil
	}

	question := n.clarify(ctx, merged)
	delta := State{
		Requirements:    merged,
		PendingQuestion: &question,
		FinalResponse:   question,
		Messages:        []llms.MessageContent{assistantTurn(question)},
	}
	return graph.Interrupt(delta, map[string]any{
		"finalResponse":      question,
		"node":               NodeExtractor,
		"travelRequirements": merged,
	}), nil
}

func (n *Extractor) clarify(ctx context.Context, r *Requirements) string {
	question, err := n.client.Complete(ctx,
		fmt.Sprintf(clarifyPromptFormat, missingSlots(r)),
		[]llms.MessageContent{userTurn("请向我提一个澄清问题。")},
	)
	if err != nil || question == "" {
		n.logger.Warn("clarification model unavailable, using fallback question", zap.Error(err))
		return fallbackQuestion
	}
	return question
}

func missingSlots(r *Requirements) string {
	switch {
	case r == nil:
		return "目的地和出行时间"
	case r.Destination == "" && r.TravelDate == "":
		return "目的地和出行时间"
	case r.Destination == "":
		return "目的地"
	default:
		return "出行时间"
	}
}
