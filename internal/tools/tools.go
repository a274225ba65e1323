// Package tools provides the callable tools exposed to the research agent:
// weather lookup, currency exchange rates and local travel knowledge search.
// All tools implement the langchaingo tools.Tool interface and report
// failures as tool output rather than errors, so the agent can read the
// failure and decide how to proceed.
package tools

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseInput extracts a named string argument from a tool call input. Models
// send either a bare string or a JSON object, depending on provider mood.
func parseInput(input, key string) string {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "{") {
		return strings.Trim(input, `"`)
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return input
	}
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// errorResult renders a failure as a JSON payload for the model.
func errorResult(format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	out, _ := json.Marshal(map[string]string{"error": msg})
	return string(out)
}
