package api

import (
	"context"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"
)

// embeddedOpenAPIDoc describes the fixed-path JSON/HTTP routes registered
// in routes(); the parameterised routes ({id}, {service}, {jobId}),
// /openapi.json and the WebSocket endpoints are not listed in it. It is
// parsed and validated once at package initialisation (mustLoadOpenAPIDoc
// panics rather than serve a broken document) and then served verbatim.
const embeddedOpenAPIDoc = `{
  "openapi": "3.0.3",
  "info": {"title": "Intent Recognition & Meta-Routing Service", "version": "1.0.0"},
  "paths": {
    "/health": {"get": {"summary": "Liveness", "responses": {"200": {"description": "ok"}}}},
    "/health/services": {"get": {"summary": "Per-service health", "responses": {"200": {"description": "ok"}}}},
    "/metrics": {"get": {"summary": "Prometheus exposition", "responses": {"200": {"description": "ok"}}}},
    "/metrics/summary": {"get": {"summary": "JSON metrics rollup", "responses": {"200": {"description": "ok"}}}},
    "/intent/recognize": {"post": {"summary": "Classify and select a target service", "responses": {"200": {"description": "ok"}}}},
    "/intent/analyze": {"post": {"summary": "Text-only classification shortcut", "responses": {"200": {"description": "ok"}}}},
    "/intent/test": {"post": {"summary": "Simulate routing without forwarding", "responses": {"200": {"description": "ok"}}}},
    "/route": {"post": {"summary": "Classify and forward under the circuit breaker", "responses": {"200": {"description": "ok"}}}},
    "/config/rules": {"get": {"summary": "Current routing configuration", "responses": {"200": {"description": "ok"}}}},
    "/config/reload": {"post": {"summary": "Reload configuration from disk", "responses": {"200": {"description": "ok"}}}},
    "/manifests": {"get": {"summary": "List manifest summaries", "responses": {"200": {"description": "ok"}}}},
    "/manifests/jobs/history": {"get": {"summary": "Refresh job history", "responses": {"200": {"description": "ok"}}}}
  }
}`

var validatedOpenAPIDoc = mustLoadOpenAPIDoc()

func mustLoadOpenAPIDoc() []byte {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData([]byte(embeddedOpenAPIDoc))
	if err != nil {
		panic("api: embedded OpenAPI document failed to parse: " + err.Error())
	}
	if err := doc.Validate(context.Background()); err != nil {
		panic("api: embedded OpenAPI document failed validation: " + err.Error())
	}
	return []byte(embeddedOpenAPIDoc)
}

// GET /openapi.json
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, err := w.Write(validatedOpenAPIDoc)
	if err != nil {
		s.log.Warn("openapi: failed to write response", zap.Error(err))
	}
}
