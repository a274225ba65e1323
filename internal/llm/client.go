// Package llm wraps the model collaborator behind the narrow surface the
// workflow nodes depend on: plain completion, token streaming, and structured
// output coerced into a typed record.
package llm

import (
	"context"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// ErrEmptyResponse is returned when the model yields no choices.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Client adapts a langchaingo model to the collaborator contract.
type Client struct {
	model    llms.Model
	logger   *zap.Logger
	callOpts []llms.CallOption
}

type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCallOptions sets default call options applied to every completion
// (model name, temperature, token limits).
func WithCallOptions(opts ...llms.CallOption) Option {
	return func(c *Client) {
		c.callOpts = append(c.callOpts, opts...)
	}
}

// New creates a client around the given model.
func New(model llms.Model, opts ...Option) *Client {
	c := &Client{
		model:  model,
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Complete sends the system prompt plus transcript to the model and returns
// the first choice's text.
func (c *Client) Complete(
	ctx context.Context,
	system string,
	transcript []llms.MessageContent,
	opts ...llms.CallOption,
) (string, error) {
	resp, err := c.generate(ctx, system, transcript, opts...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

// Stream forwards the model's token stream to fn chunk by chunk and returns
// the accumulated text once the stream completes.
func (c *Client) Stream(
	ctx context.Context,
	system string,
	transcript []llms.MessageContent,
	fn func(chunk string) error,
	opts ...llms.CallOption,
) (string, error) {
	var buf []byte
	streamOpt := llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		buf = append(buf, chunk...)
		return fn(string(chunk))
	})

	resp, err := c.generate(ctx, system, transcript, append(opts, streamOpt)...)
	if err != nil {
		return "", err
	}
	if len(buf) > 0 {
		return string(buf), nil
	}
	return resp.Choices[0].Content, nil
}

// Generate exposes the raw content response for callers that need tool-call
// choices rather than plain text.
func (c *Client) Generate(
	ctx context.Context,
	system string,
	transcript []llms.MessageContent,
	opts ...llms.CallOption,
) (*llms.ContentResponse, error) {
	return c.generate(ctx, system, transcript, opts...)
}

func (c *Client) generate(
	ctx context.Context,
	system string,
	transcript []llms.MessageContent,
	opts ...llms.CallOption,
) (*llms.ContentResponse, error) {
	messages := make([]llms.MessageContent, 0, len(transcript)+1)
	if system != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	messages = append(messages, transcript...)

	callOpts := make([]llms.CallOption, 0, len(c.callOpts)+len(opts))
	callOpts = append(callOpts, c.callOpts...)
	callOpts = append(callOpts, opts...)

	resp, err := c.model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "model call failed")
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	return resp, nil
}
