package intent

import (
	"sort"

	"github.com/jordigilh/intentrouter/pkg/types"
)

// fusionWeights are the fixed per-source weights.
var fusionWeights = map[string]float64{
	"ml": 2.0,
	"nlp": 1.0,
	"rules": 1.0,
	"patterns": 1.0,
}

// fuse computes, for each candidate service, the weighted average of the
// source scores that actually scored it, times the contextual multiplier,
// clamped to [0,1].
func fuse(sources map[string]map[string]float64, multiplier float64) map[string]float64 {
	candidates := make(map[string]bool)
	for _, m := range sources {
		for svc := range m {
			candidates[svc] = true
		}
	}

	fused := make(map[string]float64, len(candidates))
	for svc := range candidates {
		var weightedSum, weightTotal float64
		for name, m := range sources {
			score, ok := m[svc]
			if !ok {
				continue
			}
			w := fusionWeights[name]
			weightedSum += score * w
			weightTotal += w
		}
		if weightTotal == 0 {
			continue
		}
		val := (weightedSum / weightTotal) * multiplier
		if val < 0 {
			val = 0
		}
		if val > 1 {
			val = 1
		}
		fused[svc] = val
	}
	return fused
}

// serviceOrder returns each category's target service in intentCategories
// insertion order, deduplicated on first occurrence. This is the
// tie-break order for selection.
func serviceOrder(bundle *types.ConfigBundle) []string {
	seen := make(map[string]bool)
	order := make([]string, 0, len(bundle.CategoryOrder))
	for _, name := range bundle.CategoryOrder {
		svc := bundle.IntentCategories[name].TargetService
		if svc == "" || seen[svc] {
			continue
		}
		seen[svc] = true
		order = append(order, svc)
	}
	return order
}

// selectBest picks the argmax over fused, breaking ties by order and
// falling back to api-gateway-service / confidence 0 when fused is empty.
// Candidates not present in order (e.g. a rule routing to a service
// outside the configured taxonomy) are considered last, in a
// deterministic lexical order.
func selectBest(fused map[string]float64, order []string) (service string, confidence float64) {
	best := ""
	bestScore := -1.0

	for _, svc := range order {
		if score, ok := fused[svc]; ok && score > bestScore {
			best = svc
			bestScore = score
		}
	}

	var extra []string
	inOrder := make(map[string]bool, len(order))
	for _, svc := range order {
		inOrder[svc] = true
	}
	for svc := range fused {
		if !inOrder[svc] {
			extra = append(extra, svc)
		}
	}
	sort.Strings(extra)
	for _, svc := range extra {
		if fused[svc] > bestScore {
			best = svc
			bestScore = fused[svc]
		}
	}

	if best == "" {
		return "api-gateway-service", 0
	}
	return best, bestScore
}

// categoryForService finds the first category (in insertion order) whose
// targetService matches, used to populate the response's category name,
// keywords, and priority.
func categoryForService(bundle *types.ConfigBundle, service string) (name string, category types.IntentCategory, ok bool) {
	for _, n := range bundle.CategoryOrder {
		c := bundle.IntentCategories[n]
		if c.TargetService == service {
			return n, c, true
		}
	}
	return "", types.IntentCategory{}, false
}
