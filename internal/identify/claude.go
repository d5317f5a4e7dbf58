package identify

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultClaudeModel = "claude-sonnet-4-5-20250929"

// ClaudeConfig wires Anthropic access.
type ClaudeConfig struct {
	APIKey string
	Model  string
}

// Claude identifies photos with an Anthropic vision model.
type Claude struct {
	client *anthropic.Client
	model  string
}

func NewClaude(cfg ClaudeConfig, opts ...option.RequestOption) (*Claude, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("anthropic api key missing")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultClaudeModel
	}
	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &Claude{client: &client, model: model}, nil
}

func (c *Claude) Identify(ctx context.Context, image []byte, contentType string) (Result, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(contentType, base64.StdEncoding.EncodeToString(image)),
				anthropic.NewTextBlock(userPrompt),
			),
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("anthropic: %w", err)
	}

	var reply string
	for _, block := range message.Content {
		if block.Type == "text" {
			reply = block.Text
			break
		}
	}
	if reply == "" {
		return Result{}, errors.New("no text content in anthropic response")
	}
	return parseResult(reply)
}
