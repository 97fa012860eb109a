// Package api implements C11, the HTTP surface: JSON request/response
// handling, domain-error-to-status translation, Prometheus exposition,
// and a WebSocket push channel for health/metrics snapshots. Grounded on
// the teacher's pkg/gateway chi router plus middleware layout.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apperrors "github.com/jordigilh/intentrouter/internal/errors"
	"github.com/jordigilh/intentrouter/pkg/apimetrics"
	"github.com/jordigilh/intentrouter/pkg/breaker"
	"github.com/jordigilh/intentrouter/pkg/intent"
	"github.com/jordigilh/intentrouter/pkg/manifest"
	"github.com/jordigilh/intentrouter/pkg/registry"
	metarouter "github.com/jordigilh/intentrouter/pkg/router"
)

// Deps is everything the HTTP surface needs wired in from main.
type Deps struct {
	Log *zap.Logger
	Registry *registry.Registry
	Engine *intent.Engine
	Router *metarouter.Router
	Breaker *breaker.Breaker
	Refresher *manifest.Refresher
	Manifests *manifest.Repository
	Metrics *apimetrics.Metrics
	ConfigDir string
}

// Server holds the chi router and every collaborator the handlers close
// over.
type Server struct {
	router *chi.Mux
	log *zap.Logger
	registry *registry.Registry
	engine *intent.Engine
	meta *metarouter.Router
	breaker *breaker.Breaker
	refresher *manifest.Refresher
	manifests *manifest.Repository
	metrics *apimetrics.Metrics
	configDir string
	validate *validator.Validate
	hub *wsHub
}

// NewServer wires every route onto the chi router.
func NewServer(d Deps) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log: d.Log,
		registry: d.Registry,
		engine: d.Engine,
		meta: d.Router,
		breaker: d.Breaker,
		refresher: d.Refresher,
		manifests: d.Manifests,
		metrics: d.Metrics,
		configDir: d.ConfigDir,
		validate: validator.New(),
		hub: newWSHub(d.Registry, d.Router, d.Metrics, d.Log),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Get("/health", s.handleHealth)
	r.Get("/health/services", s.handleHealthServices)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/metrics/summary", s.handleMetricsSummary)

	r.Post("/intent/recognize", s.handleIntentRecognize)
	r.Post("/intent/analyze", s.handleIntentAnalyze)
	r.Post("/intent/test", s.handleIntentTest)
	r.Post("/route", s.handleRoute)

	r.Get("/config/rules", s.handleConfigRulesGet)
	r.Put("/config/rules/{id}", s.handleConfigRulesPut)
	r.Post("/config/reload", s.handleConfigReload)

	r.Get("/manifests", s.handleManifestsList)
	r.Get("/manifests/{service}", s.handleManifestDetail)
	r.Post("/manifests/{service}/refresh", s.handleManifestRefresh)
	r.Get("/manifests/jobs/history", s.handleJobsHistory)
	r.Post("/manifests/jobs/{jobId}/approve", s.handleJobApprove)
	r.Post("/manifests/jobs/{jobId}/rollback", s.handleJobRollback)

	r.Get("/openapi.json", s.handleOpenAPI)
	r.Get("/ws/health", s.handleWSHealth)
	r.Get("/ws/metrics", s.handleWSMetrics)
}

// Handler exposes the wired router for http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	status := apperrors.GetStatusCode(err)
	fields := apperrors.LogFields(err)
	log.Warn("request failed", zap.Any("error_context", fields))

	body := map[string]string{"error": apperrors.SafeErrorMessage(err)}
	if appErr, ok := err.(*apperrors.AppError); ok && appErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(appErr.RetryAfter))
	}
	writeJSON(w, status, body)
}
