// Package llm is the chat-completion client behind the .gpt command and
// mention replies.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultModel = "claude-sonnet-4-5"

// defaultSystem keeps replies usable inside a chat bubble.
const defaultSystem = "You are a helpful assistant replying inside a group chat. " +
	"Keep answers short and conversational; plain text only, no markdown."

// Client wraps the Anthropic messages API.
type Client struct {
	client *anthropic.Client
	model  string
}

// New creates a client. An empty model selects the default.
func New(apiKey, model string) *Client {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	if model == "" {
		model = defaultModel
	}
	return &Client{client: &client, model: model}
}

// Reply answers a single prompt with no conversation history.
func (c *Client) Reply(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("empty prompt")
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: defaultSystem},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}

	var out strings.Builder
	for _, block := range msg.Content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			out.WriteString(textBlock.Text)
		}
	}
	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("model returned no text")
	}
	return text, nil
}
