package intent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jordigilh/intentrouter/pkg/types"
)

// evalContext is the field set condition leaves resolve keys against.
type evalContext struct {
	httpPath string
	httpMethod string
	text string
	body string
	headers map[string]string
	userID string
	sessionID string
	ip string
	userAgent string
}

func newEvalContext(req *types.IntentRequest) evalContext {
	ec := evalContext{
		httpPath: req.HTTPPath,
		httpMethod: req.HTTPMethod,
		text: req.Text,
		body: req.Body,
		headers: req.Headers,
	}
	if req.Context != nil {
		ec.userID = req.Context.UserID
		ec.sessionID = req.Context.SessionID
		ec.ip = req.Context.IP
		ec.userAgent = req.Context.UserAgent
	}
	return ec
}

// evaluateRules walks routingRules top-to-bottom; each whose condition
// tree holds contributes score = priority/1000 to its route, keeping the
// highest score seen per target when multiple rules agree.
func evaluateRules(rules []types.RoutingRule, ctx evalContext) map[string]float64 {
	scores := make(map[string]float64)
	for _, rule := range rules {
		if !evaluateCondition(rule.Conditions, ctx) {
			continue
		}
		score := float64(rule.Actions.Priority) / 1000.0
		if score > 1 {
			score = 1
		}
		if score < 0 {
			score = 0
		}
		target := rule.Actions.Route
		if existing, ok := scores[target]; !ok || score > existing {
			scores[target] = score
		}
	}
	return scores
}

func evaluateCondition(cond types.Condition, ctx evalContext) bool {
	switch cond.Type {
	case types.ConditionAnd:
		for _, child := range cond.Children {
			if !evaluateCondition(child, ctx) {
				return false
			}
		}
		return true
	case types.ConditionOr:
		for _, child := range cond.Children {
			if evaluateCondition(child, ctx) {
				return true
			}
		}
		return false
	case types.ConditionLeaf:
		return evaluateLeaf(cond, ctx)
	default:
		return false
	}
}

func evaluateLeaf(cond types.Condition, ctx evalContext) bool {
	if cond.Operator == types.OpJSONPath {
		// Reserved: never implemented, always false.
		return false
	}

	field, exists := resolveField(ctx, cond.Key)

	switch cond.Operator {
	case types.OpExists:
		return exists && field != ""
	case types.OpEquals:
		return exists && field == stringifyValue(cond.Value)
	case types.OpContains:
		return exists && strings.Contains(field, stringifyValue(cond.Value))
	case types.OpStarts:
		return exists && strings.HasPrefix(field, stringifyValue(cond.Value))
	case types.OpMatches:
		if !exists {
			return false
		}
		re, err := regexp.Compile(stringifyValue(cond.Value))
		if err != nil {
			return false
		}
		return re.MatchString(field)
	case types.OpIn:
		if !exists {
			return false
		}
		list, ok := cond.Value.([]any)
		if !ok {
			return false
		}
		for _, v := range list {
			if field == stringifyValue(v) {
				return true
			}
		}
		return false
	case types.OpGreater:
		if !exists {
			return false
		}
		fieldNum, err1 := strconv.ParseFloat(field, 64)
		valueNum, err2 := strconv.ParseFloat(stringifyValue(cond.Value), 64)
		if err1 != nil || err2 != nil {
			return false
		}
		return fieldNum > valueNum
	default:
		return false
	}
}

func resolveField(ctx evalContext, key string) (string, bool) {
	switch {
	case key == "httpPath":
		return ctx.httpPath, ctx.httpPath != ""
	case key == "httpMethod":
		return ctx.httpMethod, ctx.httpMethod != ""
	case key == "text":
		return ctx.text, ctx.text != ""
	case key == "body":
		return ctx.body, ctx.body != ""
	case key == "context.userId":
		return ctx.userID, ctx.userID != ""
	case key == "context.sessionId":
		return ctx.sessionID, ctx.sessionID != ""
	case key == "context.ip":
		return ctx.ip, ctx.ip != ""
	case key == "context.userAgent":
		return ctx.userAgent, ctx.userAgent != ""
	case strings.HasPrefix(key, "headers."):
		name := strings.TrimPrefix(key, "headers.")
		for hk, hv := range ctx.headers {
			if strings.EqualFold(hk, name) {
				return hv, true
			}
		}
		return "", false
	default:
		return "", false
	}
}

func stringifyValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
