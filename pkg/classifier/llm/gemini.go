package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	fastererrors "github.com/go-faster/errors"
	"google.golang.org/api/option"

	"github.com/jordigilh/intentrouter/internal/config"
)

type geminiProvider struct {
	client *genai.Client
	model string
}

func newGeminiProvider(cfg config.LLMConfig) (*geminiProvider, error) {
	if cfg.GeminiKey == "" {
		return nil, fastererrors.New("GEMINI_API_KEY not set")
	}
	model := cfg.GeminiModel
	if model == "" {
		model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiKey))
	if err != nil {
		return nil, fastererrors.Wrap(err, "create gemini client")
	}
	return &geminiProvider{client: client, model: model}, nil
}

func (p *geminiProvider) modelID() string {
	return fmt.Sprintf("gemini:%s", p.model)
}

// generate pins the generation config to low temperature, greedy
// sampling, and a bounded output cap.
func (p *geminiProvider) generate(ctx context.Context, prompt string) (string, error) {
	model := p.client.GenerativeModel(p.model)
	model.SetTemperature(0.2)
	model.SetTopK(1)
	model.SetTopP(1)
	model.SetMaxOutputTokens(1024)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fastererrors.Wrap(err, "gemini generate content")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fastererrors.New("gemini returned no content")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fastererrors.New("gemini returned non-text part")
	}
	return string(text), nil
}
