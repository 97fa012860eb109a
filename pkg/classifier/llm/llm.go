// Package llm implements C3, the LLM-backed classifier: a deterministic
// prompt sent to one of several providers, strict-JSON response parsing,
// and a fallback to the C4 heuristic classifier on any failure. Grounded
// on the teacher's pkg/ai/llm client shape
// (NewClient(cfg, logger) returning a narrow Client interface selected
// by cfg.Provider) though the provider set and wire format are new.
package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jordigilh/intentrouter/internal/config"
	"github.com/jordigilh/intentrouter/pkg/classifier/heuristic"
)

// Classifier is C3's public surface.
type Classifier interface {
	// Classify returns targetService -> score for the known services, and
	// the active model id that produced the scores.
	Classify(ctx context.Context, text string, knownServices []string) (map[string]float64, string)
	ActiveModelID() string
}

// provider is the narrow interface each backend implements: send a
// deterministic prompt, get back the raw model text.
type provider interface {
	generate(ctx context.Context, prompt string) (string, error)
	modelID() string
}

const callTimeout = 10 * time.Second

type classifier struct {
	log *zap.Logger
	backend provider
	// configuredModel is fixed at construction time: the model id the
	// classifier was configured to use, independent of any per-call
	// fallback. Classify returns the model id actually used for that
	// call, which may differ when a request falls back to heuristic.
	configuredModel string
}

// NewClassifier builds C3 for the configured provider. An unsupported or
// empty provider, or one missing required credentials, degrades to the
// heuristic-only backend rather than failing startup.
func NewClassifier(cfg config.LLMConfig, log *zap.Logger) Classifier {
	c := &classifier{log: log}

	switch cfg.Provider {
	case "gemini":
		p, err := newGeminiProvider(cfg)
		if err != nil {
			log.Warn("llm: gemini provider unavailable, using heuristic fallback", zap.Error(err))
			c.backend = nil
		} else {
			c.backend = p
		}
	case "anthropic":
		p, err := newAnthropicProvider(cfg)
		if err != nil {
			log.Warn("llm: anthropic provider unavailable, using heuristic fallback", zap.Error(err))
			c.backend = nil
		} else {
			c.backend = p
		}
	case "bedrock":
		p, err := newBedrockProvider(cfg)
		if err != nil {
			log.Warn("llm: bedrock provider unavailable, using heuristic fallback", zap.Error(err))
			c.backend = nil
		} else {
			c.backend = p
		}
	default:
		c.backend = nil
	}

	if c.backend != nil {
		c.configuredModel = c.backend.modelID()
	} else {
		c.configuredModel = heuristic.ModelID
	}
	return c
}

func (c *classifier) ActiveModelID() string {
	return c.configuredModel
}

// Classify blocks on a single outbound request with a bounded timeout. It
// is safe to call concurrently: the active model id is returned as a
// call-local value rather than stored on the classifier, so concurrent
// requests can't overwrite each other's attribution.
func (c *classifier) Classify(ctx context.Context, text string, knownServices []string) (map[string]float64, string) {
	if c.backend == nil {
		return heuristic.Classify(text), heuristic.ModelID
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	raw, err := c.backend.generate(callCtx, buildPrompt(text, knownServices))
	if err != nil {
		c.log.Warn("llm: generation failed, falling back to heuristic", zap.Error(err))
		return heuristic.Classify(text), heuristic.ModelID
	}

	scores, err := parseResponse(raw, knownServices)
	if err != nil || len(scores) == 0 {
		if err != nil {
			c.log.Warn("llm: response parse failed, falling back to heuristic", zap.Error(err))
		} else {
			c.log.Warn("llm: response contained no known services, falling back to heuristic")
		}
		return heuristic.Classify(text), heuristic.ModelID
	}

	return scores, c.backend.modelID()
}
