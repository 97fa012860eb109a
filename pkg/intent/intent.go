// Package intent implements C5, the intent recognition engine: cache
// lookup, four weighted evidence sources, contextual scoring, fusion, and
// selection, producing the IntentResponse served by C6.
package intent

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jordigilh/intentrouter/pkg/apimetrics"
	"github.com/jordigilh/intentrouter/pkg/cache"
	"github.com/jordigilh/intentrouter/pkg/classifier/llm"
	"github.com/jordigilh/intentrouter/pkg/registry"
	"github.com/jordigilh/intentrouter/pkg/types"
)

// Engine is C5.
type Engine struct {
	bundle *types.ConfigBundle
	cache cache.Cache
	registry *registry.Registry
	llm llm.Classifier
	nlp *nlpClassifier
	log *zap.Logger
	metrics *apimetrics.Metrics

	cacheHits int64
	cacheMisses int64
}

// NewEngine wires the classification engine. registry may be nil in
// tests that don't exercise the systemState contextual factor. metrics
// may be nil, in which case cache hit/miss counts are only available via
// CacheStats.
func NewEngine(bundle *types.ConfigBundle, c cache.Cache, reg *registry.Registry, llmClassifier llm.Classifier, metrics *apimetrics.Metrics, log *zap.Logger) *Engine {
	return &Engine{
		bundle: bundle,
		cache: c,
		registry: reg,
		llm: llmClassifier,
		nlp: newNLPClassifier(bundle),
		metrics: metrics,
		log: log,
	}
}

// UpdateBundle swaps the configuration bundle in place, used by the
// POST /config/reload path. The NLP classifier is retrained against the
// new taxonomy; the TF-IDF corpus is reset since category weights changed.
func (e *Engine) UpdateBundle(bundle *types.ConfigBundle) {
	e.bundle = bundle
	e.nlp = newNLPClassifier(bundle)
}

// Bundle returns the currently active configuration bundle.
func (e *Engine) Bundle() *types.ConfigBundle {
	return e.bundle
}

// CacheStats reports cumulative hit/miss counts for getMetrics().
func (e *Engine) CacheStats() (hits, misses int64) {
	return atomic.LoadInt64(&e.cacheHits), atomic.LoadInt64(&e.cacheMisses)
}

// ClassifyIntent runs the full seven-step classification algorithm: cache
// lookup, the four weighted evidence sources, contextual scoring, fusion,
// and selection.
func (e *Engine) ClassifyIntent(ctx context.Context, req *types.IntentRequest) (*types.IntentResponse, error) {
	start := time.Now()
	key := cache.FingerprintKey(req.Text, req.HTTPPath, req.HTTPMethod, req.Headers)

	if raw, ok := e.cache.Get(ctx, key); ok {
		var cached types.IntentResponse
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			atomic.AddInt64(&e.cacheHits, 1)
			if e.metrics != nil {
				e.metrics.CacheHitsTotal.Inc()
			}
			cached.Metadata.CacheHit = true
			return &cached, nil
		}
	}
	atomic.AddInt64(&e.cacheMisses, 1)
	if e.metrics != nil {
		e.metrics.CacheMissesTotal.Inc()
	}

	classificationText := req.Text
	if classificationText == "" {
		classificationText = req.Body
	}
	e.nlp.observe(classificationText)

	order := serviceOrder(e.bundle)

	nlpScores := e.nlp.Score(classificationText)
	mlScores, activeModel := e.llm.Classify(ctx, classificationText, order)
	ruleScores := evaluateRules(e.bundle.RoutingRules, newEvalContext(req))
	patScores := patternScores(e.bundle, classificationText, req.HTTPPath)

	healthyCount := 0
	if e.registry != nil {
		healthyCount = len(e.registry.GetHealthy())
	}
	factors := computeContextualFactors(req, healthyCount, e.bundle.ContextualFactors)
	multiplier := 1 + (averageFactors(factors)-0.5)*0.4

	fused := fuse(map[string]map[string]float64{
		"nlp": nlpScores,
		"ml": mlScores,
		"rules": ruleScores,
		"patterns": patScores,
	}, multiplier)

	selectedService, confidence := selectBest(fused, order)

	categoryName, category, ok := categoryForService(e.bundle, selectedService)
	if !ok {
		categoryName = "general"
		category = types.IntentCategory{Priority: 100, TargetService: selectedService}
	}

	priority := category.Priority
	if priority == 0 {
		priority = 100
	}

	timeoutMillis := 30000
	if e.registry != nil {
		if desc, found := e.registry.GetDescriptor(selectedService); found && desc.TimeoutMillis > 0 {
			timeoutMillis = desc.TimeoutMillis
		}
	}

	resp := &types.IntentResponse{
		IntentID: uuid.NewString(),
		RecognizedIntent: types.RecognizedIntent{
			Category: categoryName,
			Confidence: confidence,
			Keywords: category.Keywords,
			MLModel: activeModel,
		},
		Routing: types.Routing{
			TargetService: selectedService,
			Priority: priority,
			Strategy: e.bundle.MetaRouting.AlgorithmType,
			TimeoutMillis: timeoutMillis,
		},
		Metadata: types.ResponseMetadata{
			ProcessingTimeMillis: float64(time.Since(start)) / float64(time.Millisecond),
			CacheHit: false,
			ModelVersion: activeModel,
		},
		ContextualFactors: factors,
	}

	ttl := e.bundle.MetaRouting.CacheTTLSeconds
	if ttl <= 0 {
		ttl = 300
	}
	if data, err := json.Marshal(resp); err == nil {
		e.cache.SetWithTTL(ctx, key, string(data), ttl)
	} else {
		e.log.Warn("intent: failed to marshal response for cache store", zap.Error(err))
	}

	return resp, nil
}
