package llm

import (
	"context"
	"encoding/json"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	fastererrors "github.com/go-faster/errors"

	"github.com/jordigilh/intentrouter/internal/config"
)

type bedrockProvider struct {
	client *bedrockruntime.Client
	model  string
}

func newBedrockProvider(cfg config.LLMConfig) (*bedrockProvider, error) {
	if cfg.BedrockModelID == "" {
		return nil, fastererrors.New("BEDROCK_MODEL_ID not set")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.BedrockRegion != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.BedrockRegion))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fastererrors.Wrap(err, "load aws config")
	}

	return &bedrockProvider{
		client: bedrockruntime.NewFromConfig(awsCfg),
		model:  cfg.BedrockModelID,
	}, nil
}

func (p *bedrockProvider) modelID() string {
	return fmt.Sprintf("bedrock:%s", p.model)
}

// bedrockAnthropicRequest is the Messages API request shape Bedrock expects
// for Anthropic-family models (anthropic_version pinned, no separate auth).
type bedrockAnthropicRequest struct {
	AnthropicVersion string                  `json:"anthropic_version"`
	MaxTokens        int                     `json:"max_tokens"`
	Temperature      float64                 `json:"temperature"`
	TopP             float64                 `json:"top_p"`
	TopK             int                     `json:"top_k"`
	Messages         []bedrockAnthropicTurn  `json:"messages"`
}

type bedrockAnthropicTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type bedrockAnthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (p *bedrockProvider) generate(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(bedrockAnthropicRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        1024,
		Temperature:      0.2,
		TopP:             1,
		TopK:             1,
		Messages:         []bedrockAnthropicTurn{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fastererrors.Wrap(err, "marshal bedrock request")
	}

	out, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &p.model,
		Body:        reqBody,
		ContentType: strPtr("application/json"),
		Accept:      strPtr("application/json"),
	})
	if err != nil {
		return "", fastererrors.Wrap(err, "bedrock invoke model")
	}

	var parsed bedrockAnthropicResponse
	if err := json.Unmarshal(out.Body, &parsed); err != nil {
		return "", fastererrors.Wrap(err, "unmarshal bedrock response")
	}
	if len(parsed.Content) == 0 {
		return "", fastererrors.New("bedrock returned no content blocks")
	}
	return parsed.Content[0].Text, nil
}

func strPtr(s string) *string {
	return &s
}
