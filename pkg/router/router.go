// Package router implements C6, the Meta-Router: it drives C5, tracks
// rolling routing metrics, and either forwards the request to the
// selected downstream service or synthesizes a classification-only
// response.
package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jordigilh/intentrouter/internal/config"
	"github.com/jordigilh/intentrouter/pkg/intent"
	"github.com/jordigilh/intentrouter/pkg/registry"
	"github.com/jordigilh/intentrouter/pkg/types"
)

// emaAlpha is the smoothing factor for the rolling latency average.
const emaAlpha = 0.1

// Response is what route() returns: the downstream (or synthesized)
// HTTP-shaped result.
type Response struct {
	Status int `json:"status"`
	Headers map[string]string `json:"headers,omitempty"`
	Body json.RawMessage `json:"body"`
}

// Metrics is the getMetrics() snapshot.
type Metrics struct {
	TotalRequests int64 `json:"totalRequests"`
	PerServiceCounts map[string]int64 `json:"perServiceCounts"`
	EMALatencyMillis float64 `json:"emaLatencyMillis"`
	CacheHitRate float64 `json:"cacheHitRate"`
	ConfidenceHistogram map[string]int64 `json:"confidenceHistogram"`
}

// Router is C6.
type Router struct {
	engine *intent.Engine
	registry *registry.Registry
	cfg config.RouterConfig
	client *http.Client
	log *zap.Logger

	mu sync.Mutex
	totalRequests int64
	perServiceCounts map[string]int64
	emaLatencyMillis float64
	confidenceHistogram map[string]int64
}

// New builds C6 over an already-constructed C5 engine and C1 registry.
func New(engine *intent.Engine, reg *registry.Registry, cfg config.RouterConfig, log *zap.Logger) *Router {
	return &Router{
		engine: engine,
		registry: reg,
		cfg: cfg,
		client: &http.Client{},
		log: log,
		perServiceCounts: make(map[string]int64),
		confidenceHistogram: map[string]int64{"high": 0, "medium": 0, "low": 0},
	}
}

// Route classifies the request and either forwards it to the selected
// downstream service or returns a synthesized classification summary.
func (r *Router) Route(ctx context.Context, req *types.IntentRequest, body []byte) (*Response, *types.IntentResponse, error) {
	start := time.Now()

	classified, err := r.engine.ClassifyIntent(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	r.recordMetrics(classified, time.Since(start))

	if !r.cfg.ForwardEnabled {
		return r.synthesizeResponse(classified), classified, nil
	}

	descriptor, found := r.registry.GetDescriptor(classified.Routing.TargetService)
	if !found {
		return r.synthesizeResponse(classified), classified, nil
	}

	resp, err := r.forward(ctx, descriptor.URL, descriptor.TimeoutMillis, req, body)
	if err != nil {
		return &Response{
			Status: http.StatusGatewayTimeout,
			Body: mustJSON(map[string]string{"error": "upstream request failed: " + err.Error()}),
		}, classified, nil
	}
	return resp, classified, nil
}

func (r *Router) recordMetrics(classified *types.IntentResponse, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.totalRequests++
	r.perServiceCounts[classified.Routing.TargetService]++

	latencyMillis := float64(elapsed) / float64(time.Millisecond)
	if r.totalRequests == 1 {
		r.emaLatencyMillis = latencyMillis
	} else {
		r.emaLatencyMillis = emaAlpha*latencyMillis + (1-emaAlpha)*r.emaLatencyMillis
	}

	switch {
	case classified.RecognizedIntent.Confidence >= 0.85:
		r.confidenceHistogram["high"]++
	case classified.RecognizedIntent.Confidence >= 0.6:
		r.confidenceHistogram["medium"]++
	default:
		r.confidenceHistogram["low"]++
	}
}

// GetMetrics returns the rolling metrics snapshot.
func (r *Router) GetMetrics() Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()

	perService := make(map[string]int64, len(r.perServiceCounts))
	for k, v := range r.perServiceCounts {
		perService[k] = v
	}
	histogram := make(map[string]int64, len(r.confidenceHistogram))
	for k, v := range r.confidenceHistogram {
		histogram[k] = v
	}

	hits, misses := r.engine.CacheStats()
	var cacheHitRate float64
	if hits+misses > 0 {
		cacheHitRate = float64(hits) / float64(hits+misses)
	}

	return Metrics{
		TotalRequests: r.totalRequests,
		PerServiceCounts: perService,
		EMALatencyMillis: r.emaLatencyMillis,
		CacheHitRate: cacheHitRate,
		ConfidenceHistogram: histogram,
	}
}

func (r *Router) synthesizeResponse(classified *types.IntentResponse) *Response {
	return &Response{
		Status: http.StatusOK,
		Body: mustJSON(classified),
	}
}

// forward reissues the original method/headers/body against target,
// honoring the descriptor's timeout. Only string-valued headers are
// copied from the downstream response.
func (r *Router) forward(ctx context.Context, target string, timeoutMillis int, req *types.IntentRequest, body []byte) (*Response, error) {
	if timeoutMillis <= 0 {
		timeoutMillis = 30000
	}
	forwardCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMillis)*time.Millisecond)
	defer cancel()

	method := req.HTTPMethod
	if method == "" {
		method = http.MethodPost
	}

	httpReq, err := http.NewRequestWithContext(forwardCtx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(httpResp.Header))
	for k, values := range httpResp.Header {
		if len(values) > 0 {
			headers[k] = values[0]
		}
	}

	return &Response{
		Status: httpResp.StatusCode,
		Headers: headers,
		Body: respBody,
	}, nil
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return data
}
