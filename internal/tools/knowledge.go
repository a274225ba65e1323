package tools

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/tools"

	"github.com/itinerai/itinerai/internal/rag"
)

const noKnowledgeResult = "未找到相关攻略信息。"

// KnowledgeTool searches the local travel knowledge base through the
// retriever. Matched passages are joined into a single answer block.
type KnowledgeTool struct {
	retriever *rag.Retriever
}

var _ tools.Tool = (*KnowledgeTool)(nil)

// NewKnowledgeTool wraps a retriever as an agent tool.
func NewKnowledgeTool(r *rag.Retriever) *KnowledgeTool {
	return &KnowledgeTool{retriever: r}
}

func (t *KnowledgeTool) Name() string {
	return "search_travel_knowledge"
}

func (t *KnowledgeTool) Description() string {
	return "检索本地旅游攻略知识库，获取景点、美食、交通等信息。输入为检索问题。"
}

func (t *KnowledgeTool) Call(ctx context.Context, input string) (string, error) {
	query := parseInput(input, "query")
	if query == "" {
		return noKnowledgeResult, nil
	}

	passages, err := t.retriever.Retrieve(ctx, query)
	if err != nil {
		return errorResult("检索攻略失败: %s", err), nil
	}
	if len(passages) == 0 {
		return noKnowledgeResult, nil
	}
	return strings.Join(passages, "\n---\n"), nil
}
