package api

import (
	"encoding/json"
	"net/http"
	"time"

	apperrors "github.com/jordigilh/intentrouter/internal/errors"
	"github.com/jordigilh/intentrouter/pkg/types"
)

// recordRequestMetrics updates the fixed-name request/latency collectors
// for a completed classification.
func (s *Server) recordRequestMetrics(classified *types.IntentResponse, start time.Time, status string) {
	if s.metrics == nil || classified == nil {
		return
	}
	service := classified.Routing.TargetService
	intentCategory := classified.RecognizedIntent.Category
	s.metrics.RequestsTotal.WithLabelValues(service, intentCategory, status).Inc()
	s.metrics.LatencySeconds.WithLabelValues(service, intentCategory).Observe(time.Since(start).Seconds())
}

func (s *Server) decodeIntentRequest(r *http.Request) (*types.IntentRequest, error) {
	var req types.IntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, apperrors.NewValidationError("malformed JSON body").WithDetails(err.Error())
	}
	if err := s.validate.Struct(&req); err != nil {
		return nil, apperrors.NewValidationError("request failed validation").WithDetails(err.Error())
	}
	return &req, nil
}

// POST /intent/recognize — classify + select over the full IntentRequest.
func (s *Server) handleIntentRecognize(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, err := s.decodeIntentRequest(r)
	if err != nil {
		writeError(w, s.log, err)
		return
	}

	resp, err := s.engine.ClassifyIntent(r.Context(), req)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	s.recordRequestMetrics(resp, start, "ok")
	writeJSON(w, http.StatusOK, resp)
}

// POST /intent/analyze — text-only classification shortcut.
func (s *Server) handleIntentAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var body struct {
		Text string `json:"text" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, s.log, apperrors.NewValidationError("malformed JSON body").WithDetails(err.Error()))
		return
	}
	if err := s.validate.Struct(&body); err != nil {
		writeError(w, s.log, apperrors.NewValidationError("text is required").WithDetails(err.Error()))
		return
	}

	resp, err := s.engine.ClassifyIntent(r.Context(), &types.IntentRequest{Text: body.Text})
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	s.recordRequestMetrics(resp, start, "ok")
	writeJSON(w, http.StatusOK, resp)
}

type simulationResult struct {
	*types.IntentResponse
	WouldRoute bool `json:"wouldRoute"`
	TargetService string `json:"targetService"`
	EstimatedLatency int `json:"estimatedLatency"`
	Confidence float64 `json:"confidence"`
}

// POST /intent/test — classify without forwarding, reporting what would
// have happened had /route been called instead.
func (s *Server) handleIntentTest(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeIntentRequest(r)
	if err != nil {
		writeError(w, s.log, err)
		return
	}

	resp, err := s.engine.ClassifyIntent(r.Context(), req)
	if err != nil {
		writeError(w, s.log, err)
		return
	}

	_, wouldRoute := s.registry.GetDescriptor(resp.Routing.TargetService)

	writeJSON(w, http.StatusOK, simulationResult{
		IntentResponse: resp,
		WouldRoute: wouldRoute,
		TargetService: resp.Routing.TargetService,
		EstimatedLatency: resp.Routing.TimeoutMillis,
		Confidence: resp.RecognizedIntent.Confidence,
	})
}

// POST /route — classify then forward under the C7 circuit breaker.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, err := s.decodeIntentRequest(r)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	bodyBytes, _ := json.Marshal(req)

	resp, classified, err := s.breaker.Route(r.Context(), req, bodyBytes)
	if err != nil {
		writeError(w, s.log, err)
		return
	}

	status := "ok"
	if resp != nil && resp.Status >= 400 {
		status = "error"
	}
	s.recordRequestMetrics(classified, start, status)

	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}
