package intent

import (
	"time"

	"github.com/jordigilh/intentrouter/pkg/types"
)

// computeContextualFactors scores the five fixed contextual factors and
// applies each one's configured weight.
func computeContextualFactors(req *types.IntentRequest, healthyServiceCount int, weights map[string]types.ContextualFactorConfig) types.ContextualFactors {
	userProfile := 0.5
	if req.Context != nil && req.Context.UserID != "" {
		userProfile = 0.7
	}

	requestMetadata := 0.5
	if len(req.Headers) > 0 {
		requestMetadata = 0.6
	}

	systemState := 0.4
	if healthyServiceCount > 5 {
		systemState = 0.8
	}

	temporalContext := 0.4
	hour := time.Now().Hour()
	if hour >= 9 && hour < 17 {
		temporalContext = 0.9
	}

	businessLogic := 0.75

	return types.ContextualFactors{
		UserProfile: userProfile * weightFor(weights, "userProfile"),
		RequestMetadata: requestMetadata * weightFor(weights, "requestMetadata"),
		SystemState: systemState * weightFor(weights, "systemState"),
		TemporalContext: temporalContext * weightFor(weights, "temporalContext"),
		BusinessLogic: businessLogic * weightFor(weights, "businessLogic"),
	}
}

func weightFor(weights map[string]types.ContextualFactorConfig, name string) float64 {
	if w, ok := weights[name]; ok && w.Weight != 0 {
		return w.Weight
	}
	return 1.0
}

func averageFactors(f types.ContextualFactors) float64 {
	return (f.UserProfile + f.RequestMetadata + f.SystemState + f.TemporalContext + f.BusinessLogic) / 5.0
}
