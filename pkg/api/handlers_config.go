package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jordigilh/intentrouter/internal/config"
	apperrors "github.com/jordigilh/intentrouter/internal/errors"
	"github.com/jordigilh/intentrouter/pkg/types"
)

// GET /config/rules — the active configuration snapshot.
func (s *Server) handleConfigRulesGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Bundle())
}

// PUT /config/rules/{id} — replace one routing rule in place.
func (s *Server) handleConfigRulesPut(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var rule types.RoutingRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeError(w, s.log, apperrors.NewValidationError("malformed JSON body").WithDetails(err.Error()))
		return
	}
	if err := s.validate.Struct(&rule); err != nil {
		writeError(w, s.log, apperrors.NewValidationError("rule failed validation").WithDetails(err.Error()))
		return
	}
	rule.ID = id

	bundle := s.engine.Bundle()
	found := false
	updated := make([]types.RoutingRule, len(bundle.RoutingRules))
	copy(updated, bundle.RoutingRules)
	for i, existing := range updated {
		if existing.ID == id {
			updated[i] = rule
			found = true
			break
		}
	}
	if !found {
		writeError(w, s.log, apperrors.NewNotFoundError("routing rule "+id))
		return
	}

	next := *bundle
	next.RoutingRules = updated
	s.engine.UpdateBundle(&next)

	w.WriteHeader(http.StatusNoContent)
}

// POST /config/reload — reload meta-routing.json/routing-rules.json from
// configDir and swap them into the live engine.
func (s *Server) handleConfigReload(w http.ResponseWriter, r *http.Request) {
	bundle, err := config.LoadConfigBundle(s.configDir)
	if err != nil {
		writeError(w, s.log, apperrors.Wrap(err, apperrors.KindInternal, "failed to reload configuration"))
		return
	}
	s.engine.UpdateBundle(bundle)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "configuration reloaded",
	})
}
