package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	fastererrors "github.com/go-faster/errors"

	"github.com/jordigilh/intentrouter/internal/config"
)

type anthropicProvider struct {
	client anthropic.Client
	model  string
}

func newAnthropicProvider(cfg config.LLMConfig) (*anthropicProvider, error) {
	if cfg.AnthropicKey == "" {
		return nil, fastererrors.New("ANTHROPIC_API_KEY not set")
	}
	model := cfg.AnthropicModel
	if model == "" {
		model = string(anthropic.ModelClaude3_5HaikuLatest)
	}
	client := anthropic.NewClient(option.WithAPIKey(cfg.AnthropicKey))
	return &anthropicProvider{client: client, model: model}, nil
}

func (p *anthropicProvider) modelID() string {
	return fmt.Sprintf("anthropic:%s", p.model)
}

func (p *anthropicProvider) generate(ctx context.Context, prompt string) (string, error) {
	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   1024,
		Temperature: anthropic.Float(0.2),
		TopP:        anthropic.Float(1),
		TopK:        anthropic.Int(1),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fastererrors.Wrap(err, "anthropic messages.new")
	}
	if len(message.Content) == 0 {
		return "", fastererrors.New("anthropic returned no content blocks")
	}
	return message.Content[0].Text, nil
}
