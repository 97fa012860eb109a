package intent

import (
	"regexp"
	"strings"

	"github.com/jordigilh/intentrouter/pkg/types"
)

// patternScores is the "patterns" fusion source: keyword-overlap ratio
// over the tokenized text, floored at 0.8 when httpPath matches one of
// the category's path regexes.
func patternScores(bundle *types.ConfigBundle, text, httpPath string) map[string]float64 {
	tokens := tokenSet(tokenize(text))
	lowered := strings.ToLower(text)

	out := make(map[string]float64)
	for _, name := range bundle.CategoryOrder {
		cat := bundle.IntentCategories[name]
		if cat.TargetService == "" {
			continue
		}

		var ratio float64
		if len(cat.Keywords) > 0 {
			matches := 0
			for _, kw := range cat.Keywords {
				if keywordPresent(tokens, lowered, kw) {
					matches++
				}
			}
			ratio = float64(matches) / float64(len(cat.Keywords))
			if ratio > 1 {
				ratio = 1
			}
		}

		if httpPath != "" {
			for _, p := range cat.Patterns {
				re, err := regexp.Compile(p)
				if err != nil {
					continue
				}
				if re.MatchString(httpPath) && ratio < 0.8 {
					ratio = 0.8
					break
				}
			}
		}

		if ratio > 0 {
			if existing, ok := out[cat.TargetService]; !ok || ratio > existing {
				out[cat.TargetService] = ratio
			}
		}
	}
	return out
}

// keywordPresent checks single-word keywords against the token set and
// multi-word keywords as a lowercased substring, matching how keywords
// are authored in the default taxonomy ("credit card", "forgot").
func keywordPresent(tokens map[string]bool, lowered, keyword string) bool {
	keyword = strings.ToLower(keyword)
	if !strings.Contains(keyword, " ") {
		return tokens[keyword]
	}
	return strings.Contains(lowered, keyword)
}
