package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Client implements the OracleClient interface against the Anthropic
// Messages API. One request per analysis run; no streaming, no retries.
type Client struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// NewClient creates a new Anthropic oracle client with the given API key
// and model.
func NewClient(apiKey, model string, maxTokens int) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("anthropic model is required")
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Client{
		client:    &client,
		model:     model,
		maxTokens: int64(maxTokens),
	}, nil
}

// Name returns the client name.
func (c *Client) Name() string {
	return "anthropic"
}

// Complete sends the directive and payload to Claude and returns the
// concatenated text of the reply. Context cancellation and deadlines are
// honored by the SDK's HTTP client.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Type: "text", Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var sb strings.Builder
	for _, content := range message.Content {
		if content.Type == "text" {
			sb.WriteString(content.Text)
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic reply contained no text content")
	}

	return sb.String(), nil
}
