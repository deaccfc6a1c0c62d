package drivers

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicDirect struct {
	client    anthropic.Client
	modelID   string
	maxTokens int64
}

// NewAnthropicDriver builds the direct-path driver around the vendor SDK.
func NewAnthropicDriver(apiKey, modelID string, maxTokens int) Driver {
	return &anthropicDirect{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		modelID:   modelID,
		maxTokens: int64(maxTokens),
	}
}

func (a *anthropicDirect) Name() string {
	return "anthropic"
}

func (a *anthropicDirect) ModelID() string {
	return a.modelID
}

func (a *anthropicDirect) Invoke(ctx context.Context, prompt string) error {
	_, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.modelID),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	return err
}
