package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jordigilh/intentrouter/internal/config"
	"github.com/jordigilh/intentrouter/pkg/classifier/heuristic"
)

func TestNewClassifierDefaultsToHeuristic(t *testing.T) {
	c := NewClassifier(config.LLMConfig{Provider: "heuristic"}, zap.NewNop())
	scores, model := c.Classify(context.Background(), "forgot my password", []string{"user-authentication-service"})
	assert.Equal(t, heuristic.ModelID, model)
	assert.Greater(t, scores["user-authentication-service"], 0.0)
}

func TestNewClassifierFallsBackWhenProviderMisconfigured(t *testing.T) {
	c := NewClassifier(config.LLMConfig{Provider: "gemini"}, zap.NewNop())
	assert.Equal(t, heuristic.ModelID, c.ActiveModelID())
}

func TestParseResponseFullBody(t *testing.T) {
	raw := `{"services":[{"name":"payment-processing-service","score":0.9,"reason":"billing"},{"name":"unknown-service","score":0.5,"reason":"x"}]}`
	scores, err := parseResponse(raw, []string{"payment-processing-service"})
	require.NoError(t, err)
	assert.Equal(t, 0.9, scores["payment-processing-service"])
	_, ok := scores["unknown-service"]
	assert.False(t, ok)
}

func TestParseResponseExtractsEmbeddedObject(t *testing.T) {
	raw := "Sure, here you go:\n```json\n{\"services\":[{\"name\":\"search-service\",\"score\":1.5}]}\n```"
	scores, err := parseResponse(raw, []string{"search-service"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, scores["search-service"], "score should clamp to 1")
}

func TestParseResponseNoObjectErrors(t *testing.T) {
	_, err := parseResponse("not json at all", []string{"search-service"})
	assert.Error(t, err)
}

func TestClampRound(t *testing.T) {
	assert.Equal(t, 0.0, clampRound(-1))
	assert.Equal(t, 1.0, clampRound(2))
	assert.Equal(t, 0.1235, clampRound(0.12346))
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	a := buildPrompt("hello", []string{"svc-a", "svc-b"})
	b := buildPrompt("hello", []string{"svc-a", "svc-b"})
	assert.Equal(t, a, b)
	assert.Contains(t, a, "svc-a, svc-b")
	assert.Contains(t, a, "hello")
}
