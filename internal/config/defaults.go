package config

import "github.com/jordigilh/intentrouter/pkg/types"

// DefaultConfigBundle is the embedded configuration used whenever
// CONFIG_DIR/meta-routing.json or routing-rules.json is absent. Category
// order matches the order below, which is what the selection-stability
// invariant ties are broken by.
func DefaultConfigBundle() *types.ConfigBundle {
	order := []string{
		"authentication",
		"payment",
		"media",
		"notification",
		"search",
		"analytics",
		"general",
	}
	categories := map[string]types.IntentCategory{
		"authentication": {
			Keywords: []string{"password", "login", "reset", "credentials", "authentication", "forgot", "signin", "2fa", "mfa", "token"},
			Patterns: []string{`(?i)reset.*password`, `(?i)forgot.*password`, `(?i)log\s*in`},
			MLModelID: "intent-authn-v1",
			Priority: 200,
			TargetService: "user-authentication-service",
		},
		"payment": {
			Keywords: []string{"payment", "charge", "credit card", "billing", "invoice", "subscription", "refund", "checkout", "renewal"},
			Patterns: []string{`(?i)charge.*card`, `(?i)(subscription|billing).*renew`},
			MLModelID: "intent-payment-v1",
			Priority: 220,
			TargetService: "payment-processing-service",
		},
		"media": {
			Keywords: []string{"image", "resize", "thumbnail", "photo", "picture", "upload", "crop", "compress"},
			Patterns: []string{`(?i)resize.*(image|thumbnail)`, `(?i)upload.*(photo|image)`},
			MLModelID: "intent-media-v1",
			Priority: 150,
			TargetService: "image-processing-service",
		},
		"notification": {
			Keywords: []string{"notify", "notification", "email", "sms", "alert", "reminder", "push"},
			Patterns: []string{`(?i)send.*(email|sms|notification)`},
			MLModelID: "intent-notify-v1",
			Priority: 120,
			TargetService: "notification-service",
		},
		"search": {
			Keywords: []string{"search", "find", "query", "lookup", "filter"},
			Patterns: []string{`(?i)search\s+for`},
			MLModelID: "intent-search-v1",
			Priority: 110,
			TargetService: "search-service",
		},
		"analytics": {
			Keywords: []string{"report", "analytics", "dashboard", "metrics", "statistics", "insight"},
			Patterns: []string{`(?i)generate.*report`},
			MLModelID: "intent-analytics-v1",
			Priority: 100,
			TargetService: "analytics-service",
		},
		"general": {
			Keywords: []string{},
			Patterns: []string{},
			MLModelID: "heuristic-keywords",
			Priority: 100,
			TargetService: "api-gateway-service",
		},
	}

	return &types.ConfigBundle{
		MetaRouting: types.MetaRoutingConfig{
			AlgorithmType: "ml-enhanced",
			ConfidenceThreshold: 0.5,
			FallbackStrategy: "heuristic",
			CacheTTLSeconds: 300,
		},
		IntentCategories: categories,
		CategoryOrder: order,
		ContextualFactors: map[string]types.ContextualFactorConfig{
			"userProfile": {Weight: 1.0, Factors: []string{"userId"}},
			"requestMetadata": {Weight: 1.0, Factors: []string{"headers"}},
			"systemState": {Weight: 1.0, Factors: []string{"healthyServiceCount"}},
			"temporalContext": {Weight: 1.0, Factors: []string{"businessHours"}},
			"businessLogic": {Weight: 1.0, Factors: []string{}},
		},
		RoutingRules: []types.RoutingRule{
			{
				ID: "rule-admin-path",
				Name: "admin console paths route to api-gateway",
				Conditions: types.Condition{
					Type: types.ConditionLeaf,
					Operator: types.OpStarts,
					Key: "httpPath",
					Value: "/admin",
				},
				Actions: types.RuleAction{Route: "api-gateway-service", Priority: 300},
			},
		},
	}
}
