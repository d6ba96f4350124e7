// Package llm implements the engine's Generator interface on top of a
// langchaingo chat model.
package llm

import (
	"context"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
)

// Client turns (input, persona) pairs into chat completions. The persona
// instruction travels as the system message, the input as the human message.
type Client struct {
	model   llms.Model
	options []llms.CallOption
}

// NewClient wraps a chat model. Call options (temperature, max tokens) are
// applied to every generation.
func NewClient(model llms.Model, opts ...llms.CallOption) *Client {
	return &Client{model: model, options: opts}
}

// Generate produces the node's output text. Safe for concurrent use as long
// as the underlying model is.
func (c *Client) Generate(ctx context.Context, input, persona string) (string, error) {
	var messages []llms.MessageContent
	if persona != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, persona))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, input))

	resp, err := c.model.GenerateContent(ctx, messages, c.options...)
	if err != nil {
		return "", errors.Wrap(err, "generation failed")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("generation returned no choices")
	}
	return resp.Choices[0].Content, nil
}
