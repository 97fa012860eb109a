package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jordigilh/intentrouter/internal/config"
	"github.com/jordigilh/intentrouter/pkg/cache"
	"github.com/jordigilh/intentrouter/pkg/classifier/llm"
	"github.com/jordigilh/intentrouter/pkg/intent"
	"github.com/jordigilh/intentrouter/pkg/registry"
	"github.com/jordigilh/intentrouter/pkg/types"
)

func newTestRouter(t *testing.T, forward bool, descriptors []types.ServiceDescriptor) *Router {
	t.Helper()
	bundle := config.DefaultConfigBundle()
	c := cache.NewMemoryCache()
	llmClassifier := llm.NewClassifier(config.LLMConfig{Provider: "heuristic"}, zap.NewNop())
	reg := registry.New(logr.Discard(), descriptors)
	engine := intent.NewEngine(bundle, c, reg, llmClassifier, nil, zap.NewNop())
	return New(engine, reg, config.RouterConfig{ForwardEnabled: forward}, zap.NewNop())
}

func TestRouteSynthesizesWhenForwardingDisabled(t *testing.T) {
	r := newTestRouter(t, false, nil)
	resp, classified, err := r.Route(context.Background(), &types.IntentRequest{Text: "reset my password"}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "user-authentication-service", classified.Routing.TargetService)
}

func TestRouteForwardsWhenEnabled(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	descriptors := []types.ServiceDescriptor{
		{Name: "user-authentication-service", URL: upstream.URL, HealthPath: "/health", TimeoutMillis: 5000},
	}
	r := newTestRouter(t, true, descriptors)

	resp, _, err := r.Route(context.Background(), &types.IntentRequest{Text: "reset my password", HTTPMethod: "POST"}, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, "yes", resp.Headers["X-Upstream"])
}

func TestGetMetricsTracksRequestsAndHistogram(t *testing.T) {
	r := newTestRouter(t, false, nil)
	_, _, err := r.Route(context.Background(), &types.IntentRequest{Text: "reset my password"}, nil)
	require.NoError(t, err)

	m := r.GetMetrics()
	assert.Equal(t, int64(1), m.TotalRequests)
	assert.Equal(t, int64(1), m.PerServiceCounts["user-authentication-service"])
}
