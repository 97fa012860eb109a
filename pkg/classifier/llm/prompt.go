package llm

import (
	"strings"

	"github.com/tmc/langchaingo/prompts"
)

// promptTemplate is intentionally rigid: a deterministic instruction plus
// two substitutions, so the same (text, knownServices) pair always
// produces the same prompt.
const promptTemplate = `You are a routing classifier for an internal API gateway.
Given the request text below, score each of the known services by how
likely it is to be the intended target, from 0 (not relevant) to 1
(certainly the target).

Known services: {{.services}}

Request text:
"""
{{.text}}
"""

Respond with strict JSON only, no markdown fences, no commentary, in
exactly this shape:
{"services":[{"name":"<known-service>","score":0.0,"reason":"<short>"}]}`

var tmpl = prompts.NewPromptTemplate(promptTemplate, []string{"services", "text"})

func buildPrompt(text string, knownServices []string) string {
	formatted, err := tmpl.Format(map[string]any{
		"services": strings.Join(knownServices, ", "),
		"text": text,
	})
	if err != nil {
		// FormatPrompt only fails on template issues, which are static
		// here; fall back to naive concatenation rather than panic.
		return promptTemplate + "\nservices=" + strings.Join(knownServices, ",") + "\ntext=" + text
	}
	return formatted
}
