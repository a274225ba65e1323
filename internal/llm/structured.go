package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

const jsonOnlyInstruction = "\n\n只输出一个 JSON 对象，不要包含任何解释、注释或 Markdown 代码块。"

// StructuredOutputError reports a model response that could not be coerced to
// the requested record type. Callers must propagate it as a collaborator
// failure and never fabricate a default record in its place.
type StructuredOutputError struct {
	Raw string
	Err error
}

func (e *StructuredOutputError) Error() string {
	return fmt.Sprintf("structured output could not be parsed: %v", e.Err)
}

func (e *StructuredOutputError) Unwrap() error {
	return e.Err
}

// CompleteAs asks the model to answer as a single JSON object and decodes it
// into T. The system prompt is expected to describe the fields; this helper
// only enforces the JSON-only envelope and the decoding.
func CompleteAs[T any](
	ctx context.Context,
	c *Client,
	system string,
	transcript []llms.MessageContent,
	opts ...llms.CallOption,
) (T, error) {
	var out T

	content, err := c.Complete(ctx, system+jsonOnlyInstruction, transcript, opts...)
	if err != nil {
		return out, err
	}

	raw := extractJSON(content)
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, &StructuredOutputError{Raw: content, Err: err}
	}
	return out, nil
}

// extractJSON tolerates models that wrap the object in code fences or prose.
func extractJSON(content string) string {
	s := strings.TrimSpace(content)
	if fenced := strings.TrimPrefix(s, "```json"); fenced != s {
		s = fenced
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return strings.TrimSpace(s)
}
