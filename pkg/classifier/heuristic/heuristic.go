// Package heuristic implements C4, the keyword-bucket classifier used both
// standalone and as the fallback target for C3 when the LLM call fails.
package heuristic

import "strings"

// ModelID is the activeModelId reported whenever classification bottoms
// out at this layer.
const ModelID = "heuristic-keywords"

// FallbackService is returned, with score 0.4, when no bucket matches.
const FallbackService = "api-gateway-service"

type bucket struct {
	targetService string
	keywords []string
}

// buckets mirrors the default intent taxonomy (internal/config.DefaultConfigBundle)
// but is fixed independent of configuration: C4 is the last-resort layer and
// must keep working even if CONFIG_DIR is missing or malformed.
var buckets = []bucket{
	{targetService: "user-authentication-service", keywords: []string{"password", "login", "reset", "credentials", "authentication", "forgot", "signin", "2fa", "mfa", "token"}},
	{targetService: "payment-processing-service", keywords: []string{"payment", "charge", "credit card", "billing", "invoice", "subscription", "refund", "checkout", "renewal"}},
	{targetService: "image-processing-service", keywords: []string{"image", "resize", "thumbnail", "photo", "picture", "upload", "crop", "compress"}},
	{targetService: "notification-service", keywords: []string{"notify", "notification", "email", "sms", "alert", "reminder", "push"}},
	{targetService: "search-service", keywords: []string{"search", "find", "query", "lookup", "filter"}},
	{targetService: "analytics-service", keywords: []string{"report", "analytics", "dashboard", "metrics", "statistics", "insight"}},
}

// Classify scores text against the fixed keyword buckets: for each bucket,
// score = min(1, matches/len(keywords) + 0.2) when at least one keyword
// matched. Buckets with zero matches are omitted from the result. Falls
// back to {api-gateway-service: 0.4} when nothing matched.
func Classify(text string) map[string]float64 {
	lowered := strings.ToLower(strings.TrimSpace(text))
	scores := make(map[string]float64)

	for _, b := range buckets {
		matches := 0
		for _, kw := range b.keywords {
			if strings.Contains(lowered, kw) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		score := float64(matches)/float64(len(b.keywords)) + 0.2
		if score > 1 {
			score = 1
		}
		if existing, ok := scores[b.targetService]; !ok || score > existing {
			scores[b.targetService] = score
		}
	}

	if len(scores) == 0 {
		return map[string]float64{FallbackService: 0.4}
	}
	return scores
}
