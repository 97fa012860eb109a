package intent

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jordigilh/intentrouter/internal/config"
	"github.com/jordigilh/intentrouter/pkg/apimetrics"
	"github.com/jordigilh/intentrouter/pkg/cache"
	"github.com/jordigilh/intentrouter/pkg/classifier/llm"
	"github.com/jordigilh/intentrouter/pkg/types"
)

func newTestEngine() *Engine {
	return newTestEngineWithMetrics(apimetrics.NewWithRegistry(prometheus.NewRegistry()))
}

func newTestEngineWithMetrics(metrics *apimetrics.Metrics) *Engine {
	bundle := config.DefaultConfigBundle()
	c := cache.NewMemoryCache()
	llmClassifier := llm.NewClassifier(config.LLMConfig{Provider: "heuristic"}, zap.NewNop())
	return NewEngine(bundle, c, nil, llmClassifier, metrics, zap.NewNop())
}

func TestClassifyIntentRoutesAuthenticationText(t *testing.T) {
	e := newTestEngine()
	resp, err := e.ClassifyIntent(context.Background(), &types.IntentRequest{Text: "I forgot my password and need to reset it"})
	require.NoError(t, err)
	assert.Equal(t, "user-authentication-service", resp.Routing.TargetService)
	assert.False(t, resp.Metadata.CacheHit)
	assert.Greater(t, resp.RecognizedIntent.Confidence, 0.0)
}

func TestClassifyIntentCacheHitOnSecondCall(t *testing.T) {
	e := newTestEngine()
	req := &types.IntentRequest{Text: "reset my password please"}

	first, err := e.ClassifyIntent(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Metadata.CacheHit)

	second, err := e.ClassifyIntent(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Metadata.CacheHit)
	assert.Equal(t, first.IntentID, second.IntentID)

	hits, misses := e.CacheStats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestClassifyIntentUpdatesPrometheusCacheCounters(t *testing.T) {
	metrics := apimetrics.NewWithRegistry(prometheus.NewRegistry())
	e := newTestEngineWithMetrics(metrics)
	req := &types.IntentRequest{Text: "reset my password please"}

	_, err := e.ClassifyIntent(context.Background(), req)
	require.NoError(t, err)
	_, err = e.ClassifyIntent(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CacheHitsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CacheMissesTotal))
}

func TestClassifyIntentFallsBackWhenNothingMatches(t *testing.T) {
	e := newTestEngine()
	resp, err := e.ClassifyIntent(context.Background(), &types.IntentRequest{Text: "zzz qqq xyzzy plugh"})
	require.NoError(t, err)
	assert.Equal(t, "api-gateway-service", resp.Routing.TargetService)
}

func TestRuleRouteOverridesForAdminPath(t *testing.T) {
	e := newTestEngine()
	resp, err := e.ClassifyIntent(context.Background(), &types.IntentRequest{HTTPPath: "/admin/users", HTTPMethod: "GET"})
	require.NoError(t, err)
	assert.Equal(t, "api-gateway-service", resp.Routing.TargetService)
}

func TestServiceOrderIsDeterministic(t *testing.T) {
	bundle := config.DefaultConfigBundle()
	order := serviceOrder(bundle)
	assert.Equal(t, "user-authentication-service", order[0])
}

func TestEvaluateConditionAndOr(t *testing.T) {
	ctx := evalContext{httpPath: "/admin/settings", httpMethod: "POST"}
	and := types.Condition{
		Type: types.ConditionAnd,
		Children: []types.Condition{
			{Type: types.ConditionLeaf, Operator: types.OpStarts, Key: "httpPath", Value: "/admin"},
			{Type: types.ConditionLeaf, Operator: types.OpEquals, Key: "httpMethod", Value: "POST"},
		},
	}
	assert.True(t, evaluateCondition(and, ctx))

	or := types.Condition{
		Type: types.ConditionOr,
		Children: []types.Condition{
			{Type: types.ConditionLeaf, Operator: types.OpEquals, Key: "httpMethod", Value: "DELETE"},
			{Type: types.ConditionLeaf, Operator: types.OpStarts, Key: "httpPath", Value: "/admin"},
		},
	}
	assert.True(t, evaluateCondition(or, ctx))
}

func TestEvaluateLeafJSONPathAlwaysFalse(t *testing.T) {
	ctx := evalContext{body: `{"a":1}`}
	cond := types.Condition{Type: types.ConditionLeaf, Operator: types.OpJSONPath, Key: "body", Value: "$.a"}
	assert.False(t, evaluateCondition(cond, ctx))
}

func TestFuseWeightsMLHigherThanOthers(t *testing.T) {
	sources := map[string]map[string]float64{
		"ml":  {"svc-a": 1.0},
		"nlp": {"svc-a": 0.0},
	}
	fused := fuse(sources, 1.0)
	assert.Greater(t, fused["svc-a"], 0.5)
}

func TestSelectBestFallsBackWhenEmpty(t *testing.T) {
	svc, confidence := selectBest(map[string]float64{}, []string{"a", "b"})
	assert.Equal(t, "api-gateway-service", svc)
	assert.Equal(t, 0.0, confidence)
}

func TestSelectBestBreaksTiesByOrder(t *testing.T) {
	fused := map[string]float64{"b": 0.5, "a": 0.5}
	svc, _ := selectBest(fused, []string{"a", "b"})
	assert.Equal(t, "a", svc)
}
