package llm

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
)

// FakeResponse is one scripted model answer.
type FakeResponse struct {
	Content   string
	ToolCalls []llms.ToolCall
	Err       error
}

// Fake is a scripted llms.Model used to pin collaborator behavior in tests
// (notably the "never invent a travel date" contract, which cannot be
// guaranteed against a live model). Responses are consumed in order; the last
// one repeats once the script is exhausted.
type Fake struct {
	mu        sync.Mutex
	responses []FakeResponse
	next      int

	// Calls records every transcript the fake was invoked with.
	Calls [][]llms.MessageContent
}

var _ llms.Model = (*Fake)(nil)

// NewFake creates a scripted model.
func NewFake(responses ...FakeResponse) *Fake {
	return &Fake{responses: responses}
}

// Append adds further scripted answers.
func (f *Fake) Append(responses ...FakeResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, responses...)
}

// CallCount returns how many times the model was invoked.
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

func (f *Fake) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.mu.Lock()
	if len(f.responses) == 0 {
		f.mu.Unlock()
		return nil, errors.New("fake model has no scripted responses")
	}
	recorded := make([]llms.MessageContent, len(messages))
	copy(recorded, messages)
	f.Calls = append(f.Calls, recorded)

	resp := f.responses[f.next]
	if f.next < len(f.responses)-1 {
		f.next++
	}
	f.mu.Unlock()

	if resp.Err != nil {
		return nil, resp.Err
	}

	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}
	if opts.StreamingFunc != nil && resp.Content != "" {
		// Stream in two chunks so callers exercise accumulation.
		half := len(resp.Content) / 2
		for _, chunk := range []string{resp.Content[:half], resp.Content[half:]} {
			if chunk == "" {
				continue
			}
			if err := opts.StreamingFunc(ctx, []byte(chunk)); err != nil {
				return nil, err
			}
		}
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		}},
	}, nil
}

func (f *Fake) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}
