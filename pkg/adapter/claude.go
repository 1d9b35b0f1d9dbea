package adapter

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m-mizutani/goerr/v2"
)

// Claude is an optional dedicated model for history summarization. Running
// summaries do not need the main conversation model, so a cheaper model can
// be configured for them.
type Claude interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

type claudeClient struct {
	client *anthropic.Client
	model  anthropic.Model
}

type ClaudeOption func(*claudeClient)

func WithClaudeModel(model string) ClaudeOption {
	return func(c *claudeClient) {
		c.model = anthropic.Model(model)
	}
}

// NewClaude creates a new Claude API client
func NewClaude(apiKey string, opts ...ClaudeOption) Claude {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	c := &claudeClient{
		client: &client,
		model:  anthropic.ModelClaude3_5HaikuLatest,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *claudeClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to call claude")
	}

	var sb strings.Builder
	for _, content := range message.Content {
		if content.Type == "text" {
			sb.WriteString(content.AsText().Text)
		}
	}

	if sb.Len() == 0 {
		return "", goerr.New("claude returned no text content")
	}

	return sb.String(), nil
}
